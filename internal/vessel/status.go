package vessel

// NavStatus is the AIS navigational status code (0-15).
type NavStatus int

const (
	StatusUnderway NavStatus = iota
	StatusAtAnchor
	StatusNotUnderCommand
	StatusRestricted
	StatusConstrainedByDraught
	StatusMoored
	StatusAground
	StatusFishing
	StatusSailing
	StatusUnknown NavStatus = 15
)

// ColorClass groups statuses that share a marker color.
type ColorClass string

const (
	ClassUnderway ColorClass = "underway"
	ClassAnchor   ColorClass = "anchor"
	ClassAlert    ColorClass = "alert"
	ClassMoored   ColorClass = "moored"
	ClassUnknown  ColorClass = "unknown"
)

var statusLabels = map[NavStatus]string{
	StatusUnderway:             "UNDERWAY",
	StatusAtAnchor:             "AT ANCHOR",
	StatusNotUnderCommand:      "NOT UNDER COMMAND",
	StatusRestricted:           "RESTRICTED",
	StatusConstrainedByDraught: "CONSTRAINED BY DRAUGHT",
	StatusMoored:               "MOORED",
	StatusAground:              "AGROUND",
	StatusFishing:              "FISHING",
	StatusSailing:              "SAILING",
	StatusUnknown:              "UNKNOWN",
}

var statusClasses = map[NavStatus]ColorClass{
	StatusUnderway:             ClassUnderway,
	StatusAtAnchor:             ClassAnchor,
	StatusNotUnderCommand:      ClassAlert,
	StatusRestricted:           ClassAlert,
	StatusConstrainedByDraught: ClassAlert,
	StatusMoored:               ClassMoored,
	StatusAground:              ClassAlert,
	StatusFishing:              ClassAnchor,
	StatusSailing:              ClassUnderway,
}

func (s NavStatus) Label() string {
	if l, ok := statusLabels[s]; ok {
		return l
	}
	return statusLabels[StatusUnknown]
}

func (s NavStatus) Class() ColorClass {
	if c, ok := statusClasses[s]; ok {
		return c
	}
	return ClassUnknown
}

func (s NavStatus) String() string { return s.Label() }
