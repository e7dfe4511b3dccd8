package errx

import (
	"errors"
	"fmt"
	"testing"
)

func TestError_Is_只按code比较(t *testing.T) {
	e1 := NewBiz("TASK_REJECTED", "a").WithData("k", "v")
	e2 := NewBiz("TASK_REJECTED", "b").WithCause(errors.New("x"))
	if !errors.Is(e1, e2) {
		t.Fatalf("期望 errors.Is 按 code 判断, e1=%v e2=%v", e1, e2)
	}
	if errors.Is(e1, NewBiz("OTHER", "a")) {
		t.Fatalf("期望不同 code 不相等")
	}
}

func TestError_业务错误不带栈(t *testing.T) {
	cause := errors.New("db down")
	err := NewBiz("NOT_ENOUGH_RESOURCE", "not enough sticks").WithCause(cause)
	if got := err.Stack(); got != nil {
		t.Fatalf("期望业务错误不捕获栈, got=%v", got)
	}
	if !errors.Is(err, cause) {
		t.Fatalf("期望 cause 链保留")
	}
}

func TestError_系统错误只捕获一次栈(t *testing.T) {
	sys := NewSys("STORE_DOWN", "存储不可用").WithCause(errors.New("io timeout"))
	if len(sys.Stack()) == 0 {
		t.Fatalf("期望系统错误捕获栈")
	}
	outer := ErrUnavailable.WithCause(sys)
	if outer.Stack() != nil {
		t.Fatalf("期望外层不重复捕获栈")
	}
}

func TestError_派生不污染哨兵(t *testing.T) {
	_ = ErrInternal.WithData("k", "v").WithMsg("changed")
	if ErrInternal.Data() != nil || ErrInternal.Msg() != "服务器内部错误" {
		t.Fatalf("期望哨兵错误保持不变, got data=%v msg=%q", ErrInternal.Data(), ErrInternal.Msg())
	}
}

func TestCodeOf_沿错误链查找(t *testing.T) {
	wrapped := fmt.Errorf("outer: %w", ErrTimeout.WithCause(errors.New("slow")))
	if got := CodeOf(wrapped); got != CodeTimeout {
		t.Fatalf("期望 %s, got=%s", CodeTimeout, got)
	}
	if IsBiz(wrapped) {
		t.Fatalf("期望超时是系统错误")
	}
	if got := CodeOf(errors.New("plain")); got != "" {
		t.Fatalf("期望普通错误没有 code, got=%s", got)
	}
}

func TestRetryable_只认暂时性错误(t *testing.T) {
	if !Retryable(fmt.Errorf("save: %w", ErrUnavailable.WithCause(errors.New("conn reset")))) {
		t.Fatalf("期望存储不可用可重试")
	}
	if !Retryable(ErrTimeout) {
		t.Fatalf("期望超时可重试")
	}
	if Retryable(ErrInternal) || Retryable(errors.New("plain")) || Retryable(nil) {
		t.Fatalf("期望内部错误和普通错误不可重试")
	}
}
