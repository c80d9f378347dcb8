package domain

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// DefaultContainerDimensions 是未指定尺寸时使用的容器规格
const DefaultContainerDimensions = "3x5"

var dimensionPattern = regexp.MustCompile(`^(\d+)[xX](\d+)$`)

// PlantContainer 描述植株所在的物理容器，只能绑定一株植株
// ID 与所属植株 ID 一致，随植株一并销毁
type PlantContainer struct {
	ID    int64
	Rows  int
	Depth int
}

// Dimensions 返回 "RxD" 形式的尺寸
func (c PlantContainer) Dimensions() string {
	return fmt.Sprintf("%dx%d", c.Rows, c.Depth)
}

// Label 返回容器在台账中的名称
func (c PlantContainer) Label() string {
	return fmt.Sprintf("container-%d", c.ID)
}

// ParseDimensions parses an "RxD" string such as "3x5". Both components must
// be positive integers.
func ParseDimensions(raw string) (int, int, error) {
	matches := dimensionPattern.FindStringSubmatch(strings.TrimSpace(raw))
	if matches == nil {
		return 0, 0, invalid("dimensions", "%q must look like RxD (e.g. 3x4)", raw)
	}

	rows, err := strconv.Atoi(matches[1])
	if err != nil {
		return 0, 0, invalid("dimensions", "row count %q is not a number", matches[1])
	}
	depth, err := strconv.Atoi(matches[2])
	if err != nil {
		return 0, 0, invalid("dimensions", "depth %q is not a number", matches[2])
	}
	if rows <= 0 || depth <= 0 {
		return 0, 0, invalid("dimensions", "%q must have positive components", raw)
	}
	return rows, depth, nil
}
