package errx

import (
	"errors"
	"fmt"
	"maps"
	"runtime"
	"slices"
)

// Code 是对外稳定的错误码。
type Code string

type kind uint8

const (
	kindBiz kind = iota
	kindSys
)

// Reason 只暴露 reason code，由各业务自行枚举。
type Reason interface {
	ReasonCode() string
}

// Error 统一错误模型。
// 业务错误（biz）表示指令被拒绝，可恢复，不带栈；
// 系统错误（sys）表示存储/依赖故障，首次挂 cause 时捕获一次栈。
type Error struct {
	code  Code
	msg   string
	data  map[string]any
	cause error
	stack []uintptr
	kind  kind
}

func NewBiz(code Code, msg string) *Error {
	return &Error{code: code, msg: msg, kind: kindBiz}
}

func NewSys(code Code, msg string) *Error {
	return &Error{code: code, msg: msg, kind: kindSys}
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	head := string(e.code)
	if e.msg != "" {
		head = fmt.Sprintf("%s: %s", e.code, e.msg)
	}
	if e.cause == nil {
		return head
	}
	return fmt.Sprintf("%s: %v", head, e.cause)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// Is 只比较错误码，msg/data/cause 不参与。
func (e *Error) Is(target error) bool {
	if e == nil || target == nil {
		return false
	}
	t, ok := target.(*Error)
	if !ok || t == nil {
		return false
	}
	return e.code == t.code
}

func (e *Error) Code() Code {
	if e == nil {
		return ""
	}
	return e.code
}

func (e *Error) CodeText() string {
	return string(e.Code())
}

func (e *Error) Msg() string {
	if e == nil {
		return ""
	}
	return e.msg
}

func (e *Error) IsBiz() bool {
	return e != nil && e.kind == kindBiz
}

// Data 返回拷贝。
func (e *Error) Data() map[string]any {
	if e == nil {
		return nil
	}
	return maps.Clone(e.data)
}

// Reason 读取 data["reason"]。
func (e *Error) Reason() string {
	if e == nil || e.data == nil {
		return ""
	}
	s, _ := e.data["reason"].(string)
	return s
}

func (e *Error) Stack() []uintptr {
	if e == nil {
		return nil
	}
	return slices.Clone(e.stack)
}

// derive 复制出新对象，哨兵错误本身永远不被修改。
func (e *Error) derive() *Error {
	next := *e
	next.data = maps.Clone(e.data)
	next.stack = slices.Clone(e.stack)
	return &next
}

// WithMsg 替换对外 msg，例如 "not enough sticks"。
func (e *Error) WithMsg(msg string) *Error {
	next := e.derive()
	next.msg = msg
	return next
}

func (e *Error) WithData(key string, value any) *Error {
	return e.WithDataMap(map[string]any{key: value})
}

// WithDataMap 合并进 data，同名键覆盖。
func (e *Error) WithDataMap(data map[string]any) *Error {
	next := e.derive()
	if len(data) == 0 {
		return next
	}
	if next.data == nil {
		next.data = make(map[string]any, len(data))
	}
	maps.Copy(next.data, data)
	return next
}

func (e *Error) WithReason(reason Reason) *Error {
	if reason == nil {
		return e.WithData("reason", "")
	}
	return e.WithData("reason", reason.ReasonCode())
}

func (e *Error) WithCause(cause error) *Error {
	next := e.derive()
	next.cause = cause
	// 下层已经带栈时不重复捕获
	if next.kind == kindSys && cause != nil && len(next.stack) == 0 && !hasStackInChain(cause) {
		next.stack = captureStack(3)
	}
	return next
}

// As 取错误链上第一个 *Error。
func As(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}

// CodeOf 没有 *Error 时返回空串。
func CodeOf(err error) Code {
	e, _ := As(err)
	return e.Code()
}

func IsBiz(err error) bool {
	e, _ := As(err)
	return e.IsBiz()
}

// Retryable 存储不可用、超时这类暂时性系统错误，重试可能成功。
func Retryable(err error) bool {
	switch CodeOf(err) {
	case CodeUnavailable, CodeTimeout:
		return true
	}
	return false
}

func captureStack(skip int) []uintptr {
	pcs := make([]uintptr, 64)
	n := runtime.Callers(skip, pcs)
	if n <= 0 {
		return nil
	}
	return pcs[:n]
}

func hasStackInChain(err error) bool {
	for i := 0; i < 32 && err != nil; i++ {
		if sp, ok := err.(interface{ Stack() []uintptr }); ok && len(sp.Stack()) != 0 {
			return true
		}
		err = errors.Unwrap(err)
	}
	return false
}
