package domain

// PersonalSetting names one of the closed set of per-user switches.
type PersonalSetting string

const (
	SettingVideo      PersonalSetting = "video"
	SettingAudio      PersonalSetting = "audio"
	SettingReactions  PersonalSetting = "reactions"
	SettingScreenLock PersonalSetting = "screen_lock"
)

// GlobalSetting names one of the room-wide switches.
type GlobalSetting string

const (
	GlobalChat      GlobalSetting = "chat"
	GlobalReactions GlobalSetting = "reactions"
)

// ParsePersonalSetting validates a setting name coming from a command.
func ParsePersonalSetting(name string) (PersonalSetting, error) {
	switch s := PersonalSetting(name); s {
	case SettingVideo, SettingAudio, SettingReactions, SettingScreenLock:
		return s, nil
	}
	return "", ErrUnknownSetting.Withf("unknown setting %q", name)
}

// ParseGlobalSetting validates a room-wide setting name.
func ParseGlobalSetting(name string) (GlobalSetting, error) {
	switch s := GlobalSetting(name); s {
	case GlobalChat, GlobalReactions:
		return s, nil
	}
	return "", ErrUnknownSetting.Withf("unknown setting %q", name)
}

// Forceable reports whether an admin may set s on behalf of another user.
func (s PersonalSetting) Forceable() bool {
	return s != SettingScreenLock
}

// PersonalSettings are the owner-controlled switches of a user.
type PersonalSettings struct {
	VideoOn      bool `json:"video_on"`
	AudioOn      bool `json:"audio_on"`
	ReactionsOn  bool `json:"reactions_on"`
	ScreenLocked bool `json:"screen_lock"`
	HandRaised   bool `json:"raised_hand"`
}

// DefaultPersonalSettings is what a user joins with.
func DefaultPersonalSettings() PersonalSettings {
	return PersonalSettings{VideoOn: true, AudioOn: true, ReactionsOn: true}
}

func (p *PersonalSettings) Set(s PersonalSetting, on bool) error {
	switch s {
	case SettingVideo:
		p.VideoOn = on
	case SettingAudio:
		p.AudioOn = on
	case SettingReactions:
		p.ReactionsOn = on
	case SettingScreenLock:
		p.ScreenLocked = on
	default:
		return ErrUnknownSetting.Withf("unknown setting %q", s)
	}
	return nil
}

func (p PersonalSettings) Get(s PersonalSetting) (bool, error) {
	switch s {
	case SettingVideo:
		return p.VideoOn, nil
	case SettingAudio:
		return p.AudioOn, nil
	case SettingReactions:
		return p.ReactionsOn, nil
	case SettingScreenLock:
		return p.ScreenLocked, nil
	}
	return false, ErrUnknownSetting.Withf("unknown setting %q", s)
}

// GlobalSettings are the room-wide switches moderators control.
type GlobalSettings struct {
	ChatEnabled      bool `json:"chat_enabled"`
	ReactionsEnabled bool `json:"reactions_enabled"`
}

func DefaultGlobalSettings() GlobalSettings {
	return GlobalSettings{ChatEnabled: true, ReactionsEnabled: true}
}

func (g *GlobalSettings) Set(s GlobalSetting, on bool) error {
	switch s {
	case GlobalChat:
		g.ChatEnabled = on
	case GlobalReactions:
		g.ReactionsEnabled = on
	default:
		return ErrUnknownSetting.Withf("unknown setting %q", s)
	}
	return nil
}
