package tui

type View int

const (
	ViewGallery View = iota
	ViewDetail
	ViewArchive
)

func (v View) String() string {
	switch v {
	case ViewGallery:
		return "gallery"
	case ViewDetail:
		return "detail"
	case ViewArchive:
		return "archive"
	default:
		return "unknown"
	}
}

// Focus is the part of a view receiving keys.
type Focus int

const (
	FocusInput Focus = iota
	FocusList
)
