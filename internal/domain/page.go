package domain

import "math"

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// PageRequest 分页参数，page 从 0 开始
type PageRequest struct {
	page int
	size int
}

func NewPageRequest(page, size int) (PageRequest, error) {
	if page < 0 {
		return PageRequest{}, Errorf(ErrInvalidPage, "got %d", page)
	}
	if size < 1 || size > MaxPageSize {
		return PageRequest{}, Errorf(ErrInvalidPageSize, "got %d", size)
	}
	return PageRequest{page: page, size: size}, nil
}

func (p PageRequest) Page() int   { return p.page }
func (p PageRequest) Size() int   { return p.size }

// Offset page*size，溢出时饱和到 math.MaxInt
func (p PageRequest) Offset() int {
	if p.size > 0 && p.page > math.MaxInt/p.size {
		return math.MaxInt
	}
	return p.page * p.size
}

// Page 分页结果
type Page[T any] struct {
	Content       []T
	Page          int
	Size          int
	TotalElements int64
	TotalPages    int
	First         bool
	Last          bool
}

// Paginate 在内存中切页；越界页返回空内容而不是报错。
// 总页数至少为 1。
func Paginate[T any](items []T, req PageRequest) Page[T] {
	total := len(items)
	start := min(req.Offset(), total)
	end := start + min(req.size, total-start)

	content := make([]T, end-start)
	copy(content, items[start:end])

	totalPages := 1
	if total > 0 {
		totalPages = (total + req.size - 1) / req.size
	}
	return Page[T]{
		Content:       content,
		Page:          req.page,
		Size:          req.size,
		TotalElements: int64(total),
		TotalPages:    totalPages,
		First:         req.page == 0,
		Last:          req.page >= totalPages-1,
	}
}

// MapPage 转换分页内容，分页元数据保持不变
func MapPage[T, U any](p Page[T], fn func(T) U) Page[U] {
	out := make([]U, 0, len(p.Content))
	for _, v := range p.Content {
		out = append(out, fn(v))
	}
	return Page[U]{
		Content:       out,
		Page:          p.Page,
		Size:          p.Size,
		TotalElements: p.TotalElements,
		TotalPages:    p.TotalPages,
		First:         p.First,
		Last:          p.Last,
	}
}
