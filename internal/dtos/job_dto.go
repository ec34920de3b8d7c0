package dtos

// JobExtractionRequest carries pasted posting text or HTML for the LLM.
type JobExtractionRequest struct {
	RawHTML string `json:"raw_html" binding:"required"`
}

// JobDraft is what the LLM hands back to pre-fill the post-job form.
type JobDraft struct {
	Title          string   `json:"title"`
	Location       string   `json:"location"`
	Salary         *float64 `json:"salary"`
	Description    string   `json:"description"`
	Qualifications string   `json:"qualifications"`
	AboutCompany   string   `json:"aboutCompany"`
}

// JobCreationRequest is the body of POST /save-job. AdminEmail is optional
// when a session is present; if sent it must match the session.
type JobCreationRequest struct {
	AdminEmail     string  `json:"adminemail"`
	Title          string  `json:"title" binding:"required"`
	Company        string  `json:"company"`
	Location       string  `json:"location"`
	Salary         float64 `json:"salary" binding:"gte=0"`
	Description    string  `json:"description"`
	Qualifications string  `json:"qualifications"`
	AboutCompany   string  `json:"aboutCompany"`
}

type JobCreatedResponse struct {
	Message string `json:"message"`
	ID      int64  `json:"id"`
}
