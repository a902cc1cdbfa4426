package message

import "errors"

var (
	// ErrInvalidRole 消息角色无效
	ErrInvalidRole = errors.New("invalid message role")
	// ErrEmptyContent 消息内容为空
	ErrEmptyContent = errors.New("empty message content")
)
