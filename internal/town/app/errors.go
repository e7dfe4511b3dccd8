package app

import (
	"fmt"

	"Paddlers/internal/town/entity/domain"
	"Paddlers/modules/kit/errx"
)

type Code = errx.Code

const (
	CodeTaskRejected       Code = "TASK_REJECTED"
	CodeNotEnoughResource  Code = "NOT_ENOUGH_RESOURCE"
	CodePurchaseRejected   Code = "PURCHASE_REJECTED"
	CodeNotFound           Code = "NOT_FOUND"
	CodeForbidden          Code = "FORBIDDEN"
	CodeDataInconsistency  Code = "DATA_INCONSISTENCY"
	CodeInternalServer     Code = errx.CodeInternal
	CodeStorageUnavailable Code = errx.CodeUnavailable
)

var (
	// ErrTaskRejected 任务列表校验失败，具体原因见 Reason。
	ErrTaskRejected = errx.NewBiz(CodeTaskRejected, "任务校验失败")
	// ErrNotEnoughResource 扣资源会导致余额为负。
	ErrNotEnoughResource = errx.NewBiz(CodeNotEnoughResource, "not enough resources")
	ErrPurchaseRejected  = errx.NewBiz(CodePurchaseRejected, "无法购买")
	ErrNotFound          = errx.NewBiz(CodeNotFound, "not found")
	ErrForbidden         = errx.NewBiz(CodeForbidden, "无权操作该村庄")
	// ErrDataInconsistency 引用的任务/工人/建筑在加载和使用之间消失。
	ErrDataInconsistency = errx.NewSys(CodeDataInconsistency, "数据不一致")
	ErrStorage           = errx.ErrUnavailable
	ErrInternalServer    = errx.ErrInternal
)

// NotEnough 返回 "not enough <resource>"。
func NotEnough(res domain.ResourceType) *errx.Error {
	return ErrNotEnoughResource.WithMsg(fmt.Sprintf("not enough %s", res)).WithData("resource", string(res))
}

// NotFound 标注缺失的实体类型和 id。
func NotFound(entity string, id any) *errx.Error {
	return ErrNotFound.WithMsg(fmt.Sprintf("%s not found", entity)).
		WithDataMap(map[string]any{"entity": entity, "id": id})
}

// Reject 任务校验失败。
func Reject(reason Reason, data map[string]any) *errx.Error {
	return ErrTaskRejected.WithMsg(reason.Message).WithReason(reason).WithDataMap(data)
}
