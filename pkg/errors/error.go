package errors

import (
	stderrors "errors"
	"fmt"

	"github.com/iceymoss/go-newsfeed/pkg/xerr"
)

type CodeMsg struct {
	Code int    // 错误码
	Msg  string // 错误消息
	Err  error  // 原始错误
}

// 实现 error 接口
func (e *CodeMsg) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("code=%d, msg=%s: %v", e.Code, e.Msg, e.Err)
	}
	return fmt.Sprintf("code=%d, msg=%s", e.Code, e.Msg)
}

func (e *CodeMsg) Unwrap() error {
	return e.Err
}

// Is matches any CodeMsg carrying the same code.
func (e *CodeMsg) Is(target error) bool {
	t, ok := target.(*CodeMsg)
	return ok && t.Code == e.Code
}

// New 构造函数
func New(code int, msg string) error {
	return &CodeMsg{Code: code, Msg: msg}
}

// Wrap attaches a code to err, using the code's default message when msg is empty.
func Wrap(code int, msg string, err error) error {
	if msg == "" {
		msg = xerr.Message(code)
	}
	return &CodeMsg{Code: code, Msg: msg, Err: err}
}

// CodeOf returns the code of the first CodeMsg in err's chain, or SERVER_COMMON_ERROR.
func CodeOf(err error) int {
	var cm *CodeMsg
	if stderrors.As(err, &cm) {
		return cm.Code
	}
	return xerr.SERVER_COMMON_ERROR
}
