package dto

// SuccessResponse is the envelope every successful endpoint returns.
type SuccessResponse struct {
	StatusCode int         `json:"statusCode"`
	Message    string      `json:"message"`
	Payload    interface{} `json:"payload,omitempty"`
}

type ErrorResponse struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
}

type Pagination struct {
	TotalPages   int64  `json:"totalPages"`
	CurrentPage  int64  `json:"currentPage"`
	PreviousPage *int64 `json:"previousPage"`
	NextPage     *int64 `json:"nextPage"`
}

// NewPagination derives page links from a total match count. Previous and
// next are null outside the valid page range.
func NewPagination(count, page, limit int64) Pagination {
	if limit < 1 {
		limit = 1
	}
	totalPages := (count + limit - 1) / limit

	pagination := Pagination{
		TotalPages:  totalPages,
		CurrentPage: page,
	}
	if prev := page - 1; prev > 0 {
		pagination.PreviousPage = &prev
	}
	if next := page + 1; next <= totalPages {
		pagination.NextPage = &next
	}
	return pagination
}
