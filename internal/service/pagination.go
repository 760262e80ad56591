package service

// PageConfig 分页默认值与上限，来自配置
type PageConfig struct {
	DefaultPerPage int
	MaxPerPage     int
}

func DefaultPageConfig() PageConfig {
	return PageConfig{DefaultPerPage: 20, MaxPerPage: 100}
}

// Clamp 归一化页码与每页条数（per_page 超上限按上限截断）
func (p PageConfig) Clamp(page, perPage int) (int, int) {
	if page < 1 {
		page = 1
	}
	if perPage <= 0 {
		perPage = p.DefaultPerPage
	}
	if perPage > p.MaxPerPage {
		perPage = p.MaxPerPage
	}
	return page, perPage
}

// PageMeta 与响应体平铺在一起的分页元数据
type PageMeta struct {
	Total       int64 `json:"total"`
	Pages       int   `json:"pages"`
	CurrentPage int   `json:"current_page"`
	PerPage     int   `json:"per_page"`
	HasNext     bool  `json:"has_next"`
	HasPrev     bool  `json:"has_prev"`
}

func NewPageMeta(total int64, page, perPage int) PageMeta {
	pages := int((total + int64(perPage) - 1) / int64(perPage))
	return PageMeta{
		Total:       total,
		Pages:       pages,
		CurrentPage: page,
		PerPage:     perPage,
		HasNext:     page < pages,
		HasPrev:     page > 1,
	}
}
