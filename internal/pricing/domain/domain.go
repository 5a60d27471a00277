// 包 定价服务的领域模型：期限、利率、波动率，以及期权、期权组合、固定收益与结构化产品的定价
package domain

import "strings"

// ProductFamily 产品族
type ProductFamily string

const (
	FamilyOption            ProductFamily = "option"
	FamilyOptionStrategy    ProductFamily = "option-strategy"
	FamilyBond              ProductFamily = "bond"
	FamilyStructuredProduct ProductFamily = "structured-product"
)

// ParseProductFamily 解析产品族
func ParseProductFamily(s string) (ProductFamily, error) {
	switch ProductFamily(strings.ToLower(strings.TrimSpace(s))) {
	case FamilyOption:
		return FamilyOption, nil
	case FamilyOptionStrategy:
		return FamilyOptionStrategy, nil
	case FamilyBond:
		return FamilyBond, nil
	case FamilyStructuredProduct:
		return FamilyStructuredProduct, nil
	default:
		return "", unsupportedVariant("product", s)
	}
}

// OptionKind 期权品种
type OptionKind string

const (
	OptionVanilla OptionKind = "vanilla"
	OptionBinary  OptionKind = "binary"
	OptionBarrier OptionKind = "barrier"
)

// ParseOptionKind 解析期权品种
func ParseOptionKind(s string) (OptionKind, error) {
	switch OptionKind(strings.ToLower(strings.TrimSpace(s))) {
	case OptionVanilla:
		return OptionVanilla, nil
	case OptionBinary:
		return OptionBinary, nil
	case OptionBarrier:
		return OptionBarrier, nil
	default:
		return "", unsupportedVariant("option", s)
	}
}
