package dto

// CreateBorrowRequest HTTP借阅申请请求
type CreateBorrowRequest struct {
	BookID   uint   `json:"book_id" binding:"required" example:"1"`
	Quantity int    `json:"quantity" binding:"required,min=1,max=5" example:"1"`
	Note     string `json:"note" binding:"max=500" example:"课程需要"`
}

// RejectBorrowRequest HTTP拒绝申请请求
type RejectBorrowRequest struct {
	Note string `json:"note" binding:"max=500" example:"馆藏维护中"`
}

// ListBorrowsRequest HTTP借阅列表请求
// created_from/created_to使用RFC3339格式（如2024-01-15T00:00:00+08:00）
type ListBorrowsRequest struct {
	ReaderID    uint   `form:"reader_id" example:"1"` // 仅馆员可用,读者传了也会被覆盖
	BookID      uint   `form:"book_id" example:"1"`
	Status      int    `form:"status" binding:"omitempty,min=1,max=5" example:"1"`
	CreatedFrom string `form:"created_from" binding:"omitempty" example:"2024-01-01T00:00:00+08:00"`
	CreatedTo   string `form:"created_to" binding:"omitempty" example:"2024-12-31T23:59:59+08:00"`
	Keyword     string `form:"keyword" binding:"omitempty,max=100" example:"Go"`
	Page        int    `form:"page" binding:"omitempty,min=1" example:"1"`
	PageSize    int    `form:"page_size" binding:"omitempty,min=1,max=100" example:"20"`
}
