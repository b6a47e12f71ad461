package main

import (
	"fmt"
	"time"

	"vantage/internal/api"
)

func formatTaskTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04:05")
}

func taskStateLabel(task api.TaskStatus) string {
	switch {
	case task.Running:
		return "running"
	case task.ConsecutiveFailures > 0:
		return fmt.Sprintf("failing (%d)", task.ConsecutiveFailures)
	case task.RunCount == 0:
		return "pending"
	default:
		return "idle"
	}
}

func formatShare(share float64) string {
	return fmt.Sprintf("%.0f%%", share*100)
}
