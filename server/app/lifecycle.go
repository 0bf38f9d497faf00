// Package app 管理長期運行元件的生命週期：啟動、等待結束訊號、依序關閉。
package app

import "context"

// Component 可被 App 啟動與關閉的元件（HTTP server、背景 worker）。
type Component interface {
	Run() error
	Shutdown(ctx context.Context) error
}

// Hook 在所有元件關閉後依註冊順序執行（關閉 Runtime、drain log）。
type Hook func(ctx context.Context) error
