package models

// Application identifies a client application add-ons can be compatible with.
type Application uint

// Supported applications. The ids are stored in the database and must not change.
const (
	Firefox     Application = 1
	Thunderbird Application = 18
	SeaMonkey   Application = 59
	Android     Application = 61
)

var applicationShortNames = map[Application]string{
	Firefox:     "firefox",
	Thunderbird: "thunderbird",
	SeaMonkey:   "seamonkey",
	Android:     "android",
}

// Applications lists every supported application in id order.
func Applications() []Application {
	return []Application{Firefox, Thunderbird, SeaMonkey, Android}
}

// Short returns the short name used in URLs, e.g. "firefox".
func (a Application) Short() string {
	return applicationShortNames[a]
}

// Valid reports whether a is a known application.
func (a Application) Valid() bool {
	_, ok := applicationShortNames[a]
	return ok
}

// ApplicationByShort looks up an application by its short name.
func ApplicationByShort(short string) (Application, bool) {
	for app, name := range applicationShortNames {
		if name == short {
			return app, true
		}
	}
	return 0, false
}

// ApplicationByID looks up an application by its numeric id.
func ApplicationByID(id uint) (Application, bool) {
	app := Application(id)
	return app, app.Valid()
}
