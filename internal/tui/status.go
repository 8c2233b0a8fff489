package tui

import (
	"fmt"
)

// StatusKind is the severity of a status bar message.
type StatusKind int

const (
	StatusInfo StatusKind = iota
	StatusSuccess
	StatusWarn
	StatusError
)

// Status bar messages.
const (
	MsgSearching        = "Searching…"
	MsgConnectionFailed = "Could not reach the photo feed"
	MsgNoPhotos         = "No photos for this tag"
	MsgNoResults        = "No results"
	MsgNoSelection      = "No photo selected"
	MsgArchiveDisabled  = "Archive search is not available"
	MsgSelectionCleared = "Selection cleared"
	MsgRenderingDetail  = "Rendering…"
)

func MsgPhotosCount(tag string, n int) string {
	if n == 1 {
		return fmt.Sprintf("1 photo for '%s'", tag)
	}
	return fmt.Sprintf("%d photos for '%s'", n, tag)
}

func MsgResultsCount(n int) string {
	if n == 1 {
		return "1 result"
	}
	return fmt.Sprintf("%d results", n)
}

func MsgOpened(url string) string {
	return "Opened " + clipMiddle(url, 60)
}
