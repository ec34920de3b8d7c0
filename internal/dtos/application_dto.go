package dtos

type UpdateApplicationRequest struct {
	Status string `json:"status"`
}

type ApplicationCounts struct {
	TotalApplications int64 `json:"totalApplications"`
	NewApplications   int64 `json:"newApplications"`
}
