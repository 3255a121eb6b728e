package utils

const (
	MonitorCreated        = "monitor created successfully"
	MonitorUpdated        = "monitor updated successfully"
	MonitorDeleted        = "monitor deleted successfully"
	MonitorFetched        = "monitor retrieved"
	MonitorsFetched       = "monitors retrieved"
	MonitorCheckRequested = "check scheduled for next tick"
	NotificationSent      = "test notification sent"
	LoggedIn              = "logged in successfully"
)
