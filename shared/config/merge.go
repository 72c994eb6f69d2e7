package config

import "time"

// fillDefaults replaces zero fields of s with the corresponding field of d.
// Credentials are left alone: an empty default username is a valid setting.
func fillDefaults(s *Settings, d Settings) {
	if s.LoginPath == "" {
		s.LoginPath = d.LoginPath
	}
	if s.Credentials.VerifyCode == "" {
		s.Credentials.VerifyCode = d.Credentials.VerifyCode
	}

	str := func(v *string, def string) {
		if *v == "" {
			*v = def
		}
	}
	str(&s.Locators.Username, d.Locators.Username)
	str(&s.Locators.Password, d.Locators.Password)
	str(&s.Locators.VerifyCode, d.Locators.VerifyCode)
	str(&s.Locators.LoginButton, d.Locators.LoginButton)
	str(&s.Locators.SuccessIndicator, d.Locators.SuccessIndicator)
	str(&s.Locators.LogoutLink, d.Locators.LogoutLink)
	str(&s.Locators.LoginEntry, d.Locators.LoginEntry)
	str(&s.Locators.ErrorContent, d.Locators.ErrorContent)
	str(&s.Locators.ErrorConfirm, d.Locators.ErrorConfirm)
	str(&s.Locators.AnyErrorContent, d.Locators.AnyErrorContent)

	dur := func(v *time.Duration, def time.Duration) {
		if *v <= 0 {
			*v = def
		}
	}
	dur(&s.Timeouts.LoginSuccess, d.Timeouts.LoginSuccess)
	dur(&s.Timeouts.ErrorPopup, d.Timeouts.ErrorPopup)
	dur(&s.Timeouts.ErrorConfirm, d.Timeouts.ErrorConfirm)
	dur(&s.Timeouts.LogoutClick, d.Timeouts.LogoutClick)
	dur(&s.Timeouts.LogoutEntry, d.Timeouts.LogoutEntry)
	dur(&s.Timeouts.Action, d.Timeouts.Action)
	dur(&s.Timeouts.Navigation, d.Timeouts.Navigation)

	if s.Browser.Engine == "" {
		s.Browser.Engine = d.Browser.Engine
	}
	str(&s.Browser.RemoteImage, d.Browser.RemoteImage)
	str(&s.LogLevel, d.LogLevel)
	str(&s.ArtifactsDir, d.ArtifactsDir)
}
