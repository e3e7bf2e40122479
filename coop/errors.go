// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package coop

import "errors"

var (
	// ErrDeadlock is returned by Run when live tasks remain but none can
	// ever become runnable.
	ErrDeadlock = errors.New("coop: all tasks are asleep - deadlock")

	// ErrTaskPanic is wrapped by the error Run returns when a task panics.
	ErrTaskPanic = errors.New("coop: task panicked")

	// ErrTooManyTasks is returned by Spawn when maxTasks tasks are alive.
	ErrTooManyTasks = errors.New("coop: too many tasks")

	// ErrRunning is returned by Run when the scheduler is already running.
	ErrRunning = errors.New("coop: scheduler already running")
)
