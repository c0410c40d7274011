package admin

// RecomputeRequest selects the analyses to rescore
type RecomputeRequest struct {
	ShotType   *string `json:"shot_type,omitempty" validate:"omitempty,shot_type"`
	StartAfter *string `json:"start_after,omitempty" validate:"omitempty,uuid"`
}

// UpdateWeightsRequest replaces the weight profile of a shot type
type UpdateWeightsRequest struct {
	Weights map[string]float64 `json:"weights" validate:"required,min=1,dive,keys,required,endkeys,gte=0"`
}
