package models

import "errors"

// 所有错误都是终止性的，调用方通过 errors.Is 判断种类
var (
	ErrMissingRequiredField      = errors.New("missing required field")
	ErrConfigFileNotFound        = errors.New("config file not found")
	ErrUnknownFlag               = errors.New("unknown flag")
	ErrInvalidValue              = errors.New("invalid value")
	ErrInsufficientPrivilege     = errors.New("insufficient privilege")
	ErrDependencyInstallFailed   = errors.New("dependency install failed")
	ErrServiceRegistrationFailed = errors.New("service registration failed")
)
