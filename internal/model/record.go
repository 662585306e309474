package model

// CompanyRecord holds the canonical numeric attributes for one company in
// one reporting period. Missing attributes are absent from the map, never
// zero-filled. Records are not mutated after construction; scoring produces
// a derived RiskScoreResult instead.
type CompanyRecord struct {
	CompanyID string                `json:"company_id"`
	Values    map[Attribute]float64 `json:"values"`
}

// NewCompanyRecord creates a record with an empty value map.
func NewCompanyRecord(companyID string) CompanyRecord {
	return CompanyRecord{
		CompanyID: companyID,
		Values:    make(map[Attribute]float64),
	}
}

// Get returns the value for attr and whether it is present.
func (r CompanyRecord) Get(attr Attribute) (float64, bool) {
	v, ok := r.Values[attr]
	return v, ok
}

// Has reports whether attr is populated.
func (r CompanyRecord) Has(attr Attribute) bool {
	_, ok := r.Values[attr]
	return ok
}

// Clone returns a deep copy. Batch scoring derives per-record working copies
// from this so the input record is never touched.
func (r CompanyRecord) Clone() CompanyRecord {
	out := CompanyRecord{
		CompanyID: r.CompanyID,
		Values:    make(map[Attribute]float64, len(r.Values)),
	}
	for k, v := range r.Values {
		out.Values[k] = v
	}
	return out
}
