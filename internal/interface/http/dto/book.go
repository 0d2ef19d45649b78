package dto

// PublishBookRequest HTTP图书入馆请求
// validator tag说明:
// - required: 必填字段
// - min/max: 数值范围校验
type PublishBookRequest struct {
	ISBN          string `json:"isbn" binding:"required" example:"9787115428028"`
	Title         string `json:"title" binding:"required,max=200" example:"Go语言实战"`
	Author        string `json:"author" binding:"required,max=100" example:"威廉·肯尼迪"`
	Category      string `json:"category" binding:"required,max=50" example:"计算机"`
	Publisher     string `json:"publisher" binding:"required,max=100" example:"人民邮电出版社"`
	PublishedYear int    `json:"published_year" binding:"required,min=1000,max=2100" example:"2017"`
	TotalQuantity int    `json:"total_quantity" binding:"required,min=1,max=9999" example:"5"`
	CoverURL      string `json:"cover_url" binding:"omitempty,url,max=500" example:"https://example.com/cover.jpg"`
	Description   string `json:"description" binding:"max=5000" example:"这是一本关于Go语言的实战书籍"`
}

// UpdateBookRequest HTTP图书信息修改请求
type UpdateBookRequest struct {
	Title       string `json:"title" binding:"required,max=200"`
	Author      string `json:"author" binding:"required,max=100"`
	Category    string `json:"category" binding:"required,max=50"`
	Publisher   string `json:"publisher" binding:"required,max=100"`
	Description string `json:"description" binding:"max=5000"`
}

// UpdateQuantityRequest HTTP馆藏总量调整请求
type UpdateQuantityRequest struct {
	TotalQuantity int `json:"total_quantity" binding:"required,min=1,max=9999"`
}

// BookResponse HTTP图书详情响应
type BookResponse struct {
	ID                uint   `json:"id" example:"1"`
	ISBN              string `json:"isbn" example:"9787115428028"`
	Title             string `json:"title" example:"Go语言实战"`
	Author            string `json:"author" example:"威廉·肯尼迪"`
	Category          string `json:"category" example:"计算机"`
	Publisher         string `json:"publisher" example:"人民邮电出版社"`
	PublishedYear     int    `json:"published_year" example:"2017"`
	TotalQuantity     int    `json:"total_quantity" example:"5"`
	AvailableQuantity int    `json:"available_quantity" example:"3"` // 派生值:总量-在借量
	IsActive          bool   `json:"is_active" example:"true"`
	CoverURL          string `json:"cover_url" example:"https://example.com/cover.jpg"`
	Description       string `json:"description" example:"这是一本关于Go语言的实战书籍"`
	CreatedAt         string `json:"created_at" example:"2024-01-15 10:30:00"`
	UpdatedAt         string `json:"updated_at" example:"2024-01-15 10:30:00"`
}

// BookListItem HTTP图书列表项
// 列表查询时不返回Description字段(减少数据传输量)
type BookListItem struct {
	ID            uint   `json:"id" example:"1"`
	ISBN          string `json:"isbn" example:"9787115428028"`
	Title         string `json:"title" example:"Go语言实战"`
	Author        string `json:"author" example:"威廉·肯尼迪"`
	Category      string `json:"category" example:"计算机"`
	Publisher     string `json:"publisher" example:"人民邮电出版社"`
	PublishedYear int    `json:"published_year" example:"2017"`
	TotalQuantity int    `json:"total_quantity" example:"5"`
	IsActive      bool   `json:"is_active" example:"true"`
	CoverURL      string `json:"cover_url" example:"https://example.com/cover.jpg"`
	CreatedAt     string `json:"created_at" example:"2024-01-15 10:30:00"`
}

// ListBooksRequest HTTP图书列表请求
type ListBooksRequest struct {
	Page       int    `form:"page" binding:"omitempty,min=1" example:"1"`
	PageSize   int    `form:"page_size" binding:"omitempty,min=1,max=100" example:"20"`
	Keyword    string `form:"keyword" binding:"omitempty,max=100" example:"Go"`
	Category   string `form:"category" binding:"omitempty,max=50" example:"计算机"`
	OnlyActive bool   `form:"only_active" example:"true"`
	SortBy     string `form:"sort_by" binding:"omitempty,oneof=title_asc published_desc created_at_desc" example:"created_at_desc"`
}
