package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrValidation 表示输入未通过校验，调用方可修正后重试
	ErrValidation = errors.New("validation failed")
	// ErrCapacity 表示目标环境已无空位
	ErrCapacity = errors.New("environment is full")
	// ErrNotFound 表示植株或环境不存在
	ErrNotFound = errors.New("not found")
	// ErrConflict 表示当前状态不允许该操作（例如删除非空环境）
	ErrConflict = errors.New("conflict")
	// ErrPersistence 表示底层存储写入失败，内存状态仍然有效
	ErrPersistence = errors.New("persistence failed")
)

// ValidationError 描述具体被违反的约束
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

func invalid(field, format string, args ...any) *ValidationError {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// CapacityError 在网格已满时返回，不会产生任何部分修改
type CapacityError struct {
	Environment string
	MaxSize     int
}

func (e *CapacityError) Error() string {
	return fmt.Sprintf("environment %s is full (%d slots)", e.Environment, e.MaxSize)
}

func (e *CapacityError) Unwrap() error { return ErrCapacity }

// NotFoundError 描述缺失的实体类型与键
type NotFoundError struct {
	Kind string
	Key  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.Key)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// PlantNotFound 构造植株不存在错误
func PlantNotFound(id int64) *NotFoundError {
	return &NotFoundError{Kind: "plant", Key: fmt.Sprintf("%d", id)}
}

// EnvironmentNotFound 构造环境不存在错误
func EnvironmentNotFound(name string) *NotFoundError {
	return &NotFoundError{Kind: "environment", Key: name}
}

// ConflictError 列出阻止操作的占用者，便于调用方先行处理
type ConflictError struct {
	Environment string
	Reason      string
	Occupants   []Occupant
}

func (e *ConflictError) Error() string {
	if len(e.Occupants) == 0 {
		return fmt.Sprintf("environment %s: %s", e.Environment, e.Reason)
	}

	parts := make([]string, 0, len(e.Occupants))
	for _, occupant := range e.Occupants {
		parts = append(parts, fmt.Sprintf("%s (%s)", occupant.PlantName, occupant.Slot))
	}
	return fmt.Sprintf("environment %s: %s: %s", e.Environment, e.Reason, strings.Join(parts, ", "))
}

func (e *ConflictError) Unwrap() error { return ErrConflict }

// PersistenceError 包装存储层错误，同时匹配 ErrPersistence
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() []error { return []error{ErrPersistence, e.Err} }
