package service

import (
	"context"
	"errors"
	"net"
)

// 结算相关错误
var (
	ErrPaymentNotFound      = errors.New("payment not found")
	ErrAccountNotFound      = errors.New("billing account not found")
	ErrAccountSuspended     = errors.New("billing account suspended")
	ErrInvalidAmount        = errors.New("invalid payment amount")
	ErrReferenceFailed      = errors.New("reference previously failed")
	ErrLedgerUnavailable    = errors.New("ledger temporarily unavailable")
	ErrReconnectUnavailable = errors.New("reconnect api unavailable")
)

// 认证相关错误
var (
	ErrOperatorNotFound   = errors.New("operator not found")
	ErrPasswordInvalid    = errors.New("password invalid")
	ErrInvalidCredentials = errors.New("用户名或密码错误")
)

// IsPermanentFailure 判断是否为终态失败
// 校验类错误不会因重试而恢复，直接标记 failed。
func IsPermanentFailure(err error) bool {
	return errors.Is(err, ErrAccountNotFound) ||
		errors.Is(err, ErrAccountSuspended) ||
		errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrReferenceFailed)
}

// IsTransientFailure 判断是否为瞬时失败
// 超时与依赖不可用在下次批次中可能恢复，记录进 api_retry。
func IsTransientFailure(err error) bool {
	if err == nil {
		return false
	}
	if IsPermanentFailure(err) {
		return false
	}
	if errors.Is(err, ErrLedgerUnavailable) || errors.Is(err, ErrReconnectUnavailable) {
		return true
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	// 其余未知错误按瞬时处理，台账事务已回滚，重试是安全的
	return true
}
