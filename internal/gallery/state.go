package gallery

// ErrorState is the user-visible error condition of a gallery.
type ErrorState int

const (
	ErrorNone ErrorState = iota
	ErrorConnectionFailed
)

func (e ErrorState) String() string {
	switch e {
	case ErrorNone:
		return "NONE"
	case ErrorConnectionFailed:
		return "CONNECTION_FAILED"
	default:
		return "UNKNOWN"
	}
}

// Status is shared by every UiState variant.
type Status struct {
	Loading bool
	Error   ErrorState
}

func (s Status) status() Status { return s }

// UiState is either Empty or Results. Consume it with a type switch.
type UiState interface {
	status() Status
}

// Empty means no photos are currently held.
type Empty struct {
	Status
}

// Results holds a non-empty photo list and the selected index, -1 for none.
type Results struct {
	Status
	Photos        []DisplayPhoto
	SelectedIndex int
}

// InitialState is the state of a fresh store.
func InitialState() UiState {
	return Empty{}
}

// StatusOf returns the status part of any state.
func StatusOf(s UiState) Status {
	if s == nil {
		return Status{}
	}
	return s.status()
}

// PhotosOf returns the photos held by s, nil for Empty.
func PhotosOf(s UiState) []DisplayPhoto {
	if r, ok := s.(Results); ok {
		return r.Photos
	}
	return nil
}

// SelectedOf returns the selected index, -1 when nothing is selected.
func SelectedOf(s UiState) int {
	if r, ok := s.(Results); ok {
		return r.SelectedIndex
	}
	return -1
}

// normalize enforces the variant invariants: no Results without photos and
// a selection that always points into the photo list.
func normalize(s UiState) UiState {
	switch v := s.(type) {
	case nil:
		return InitialState()
	case Empty:
		return v
	case Results:
		if len(v.Photos) == 0 {
			return Empty{Status: v.Status}
		}
		photos := make([]DisplayPhoto, len(v.Photos))
		copy(photos, v.Photos)
		v.Photos = photos
		if v.SelectedIndex < -1 || v.SelectedIndex >= len(photos) {
			v.SelectedIndex = -1
		}
		return v
	default:
		panic("gallery: unknown UiState variant")
	}
}

func statesEqual(a, b UiState) bool {
	switch av := a.(type) {
	case Empty:
		bv, ok := b.(Empty)
		return ok && av == bv
	case Results:
		bv, ok := b.(Results)
		if !ok || av.Status != bv.Status || av.SelectedIndex != bv.SelectedIndex || len(av.Photos) != len(bv.Photos) {
			return false
		}
		for i := range av.Photos {
			if av.Photos[i] != bv.Photos[i] {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// withStatus returns s with its status replaced.
func withStatus(s UiState, st Status) UiState {
	switch v := s.(type) {
	case Empty:
		v.Status = st
		return v
	case Results:
		v.Status = st
		return v
	default:
		return Empty{Status: st}
	}
}

func setLoading(s UiState) UiState {
	st := StatusOf(s)
	st.Loading = true
	return withStatus(s, st)
}

func setFailed(s UiState) UiState {
	// Loading is left untouched on failure.
	st := StatusOf(s)
	st.Error = ErrorConnectionFailed
	return withStatus(s, st)
}

func setPhotos(photos []DisplayPhoto) func(UiState) UiState {
	return func(s UiState) UiState {
		return Results{
			Status:        Status{Loading: false, Error: ErrorNone},
			Photos:        photos,
			SelectedIndex: SelectedOf(s),
		}
	}
}

func clearPhotos(s UiState) UiState {
	st := StatusOf(s)
	st.Loading = false
	return Empty{Status: st}
}

func setSelected(index int) func(UiState) UiState {
	return func(s UiState) UiState {
		r, ok := s.(Results)
		if !ok || index < -1 || index >= len(r.Photos) {
			return s
		}
		r.SelectedIndex = index
		return r
	}
}
