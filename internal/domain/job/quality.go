package job

// Profile maps a named quality target to concrete encode parameters.
type Profile struct {
	Name         string `json:"quality"`
	Width        int    `json:"-"`
	Height       int    `json:"-"`
	Resolution   string `json:"resolution"`
	Bitrate      string `json:"bitrate"`
	SizeEstimate string `json:"size"`
}

var profiles = []Profile{
	{Name: "1080p", Width: 1920, Height: 1080, Resolution: "1920x1080", Bitrate: "5000k", SizeEstimate: "150-250 MB"},
	{Name: "720p", Width: 1280, Height: 720, Resolution: "1280x720", Bitrate: "2500k", SizeEstimate: "80-120 MB"},
	{Name: "480p", Width: 854, Height: 480, Resolution: "854x480", Bitrate: "1200k", SizeEstimate: "40-60 MB"},
	{Name: "360p", Width: 640, Height: 360, Resolution: "640x360", Bitrate: "800k", SizeEstimate: "20-30 MB"},
	{Name: "240p", Width: 426, Height: 240, Resolution: "426x240", Bitrate: "400k", SizeEstimate: "10-15 MB"},
}

// Profiles returns the supported quality profiles, highest first.
func Profiles() []Profile {
	out := make([]Profile, len(profiles))
	copy(out, profiles)
	return out
}

// ProfileByName resolves a profile name like "480p".
func ProfileByName(name string) (Profile, bool) {
	for _, p := range profiles {
		if p.Name == name {
			return p, true
		}
	}
	return Profile{}, false
}

// QualityForHeight derives the approximate quality label for a probed
// frame height.
func QualityForHeight(height int) string {
	switch {
	case height >= 1080:
		return "1080p"
	case height >= 720:
		return "720p"
	case height >= 480:
		return "480p"
	case height >= 360:
		return "360p"
	default:
		return "240p"
	}
}
