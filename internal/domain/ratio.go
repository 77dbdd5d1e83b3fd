package domain

// DefaultProduct names the ratio row used for unknown product codes.
const DefaultProduct = "VRAC_SHAMPOO_BASE"

// StageRatios maps an operation kind to its fraction of the total order duration.
type StageRatios map[OperationKind]float64

// RatioTable holds stage ratios per product code
type RatioTable map[string]StageRatios

// DefaultRatios returns the reference stage-time ratios.
func DefaultRatios() RatioTable {
	return RatioTable{
		"VRAC_SHAMPOO_BASE": {
			OperationMix: 0.100, OperationTransfer: 0.090, OperationFill: 0.130, OperationFinish: 0.080,
		},
		"VRAC_CONDITIONER_BASE": {
			OperationMix: 0.100, OperationTransfer: 0.050, OperationFill: 0.100, OperationFinish: 0.050,
		},
		"VRAC_HAIR_MASK": {
			OperationMix: 0.130, OperationTransfer: 0.110, OperationFill: 0.100, OperationFinish: 0.070,
		},
	}
}

// Lookup returns the ratios for product, falling back to the default row.
func (t RatioTable) Lookup(product string) StageRatios {
	if r, ok := t[product]; ok {
		return r
	}
	if r, ok := t[DefaultProduct]; ok {
		return r
	}
	return DefaultRatios()[DefaultProduct]
}

// Merge returns a copy of t with the rows of override replacing its own.
func (t RatioTable) Merge(override RatioTable) RatioTable {
	out := make(RatioTable, len(t)+len(override))
	for k, v := range t {
		out[k] = v
	}
	for k, v := range override {
		out[k] = v
	}
	return out
}
