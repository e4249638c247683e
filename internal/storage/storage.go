package storage

import "errors"

var (
	ErrWidgetNotFound   = errors.New("widget not found")
	ErrContentNotFound  = errors.New("content not found")
	ErrWebsiteNotFound  = errors.New("website not found")
	ErrNotAMember       = errors.New("not a member of website")
	ErrPermissionDenied = errors.New("permission denied")
	ErrUserExists       = errors.New("user already exists")
	ErrUserNotFound     = errors.New("user not found")
	ErrCacheMiss        = errors.New("cache miss")
)
