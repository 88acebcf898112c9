package meal

import (
	"slices"
	"strings"

	"kapp-api/internal/domain"
)

var (
	vegetarianKeywords = []string{
		"herbed greens", "salad", "tofu", "beans", "mushroom",
		"나물", "샐러드", "두부", "콩", "버섯",
	}
	spicyKeywords = []string{
		"spicy", "kimchi", "chili", "hot", "bulgogi",
		"매운", "김치", "고추", "매콤", "불고기",
	}
)

// Menu 非空、有序的菜品列表
type Menu struct {
	items []string
}

func NewMenu(items []string) (Menu, error) {
	if len(items) == 0 {
		return Menu{}, domain.ErrEmptyMenu
	}
	for i, it := range items {
		if strings.TrimSpace(it) == "" {
			return Menu{}, domain.Errorf(domain.ErrBlankMenuItem, "index %d", i)
		}
	}
	return Menu{items: slices.Clone(items)}, nil
}

// Items 返回副本
func (m Menu) Items() []string { return slices.Clone(m.items) }
func (m Menu) Size() int       { return len(m.items) }

// Contains 精确匹配
func (m Menu) Contains(item string) bool { return slices.Contains(m.items, item) }

func (m Menu) HasVegetarianOptions() bool { return m.anyContains(vegetarianKeywords) }
func (m Menu) HasSpicyItems() bool        { return m.anyContains(spicyKeywords) }

// ContainsKeyword 任一菜品包含关键字（忽略大小写）
func (m Menu) ContainsKeyword(keyword string) bool {
	k := strings.ToLower(keyword)
	for _, it := range m.items {
		if strings.Contains(strings.ToLower(it), k) {
			return true
		}
	}
	return false
}

func (m Menu) Equal(other Menu) bool { return slices.Equal(m.items, other.items) }

func (m Menu) String() string { return strings.Join(m.items, ", ") }

func (m Menu) anyContains(keywords []string) bool {
	for _, it := range m.items {
		lower := strings.ToLower(it)
		for _, k := range keywords {
			if strings.Contains(lower, k) {
				return true
			}
		}
	}
	return false
}
