package model

import (
	"strings"
	"time"
)

type Platform string

const (
	PlatformAndroid Platform = "android"
	PlatformIOS     Platform = "ios"
	PlatformWeb     Platform = "web"
)

type Device struct {
	Token     string    `json:"token" bson:"_id"`
	UserID    string    `json:"userId" bson:"user_id"`
	Platform  Platform  `json:"platform" bson:"platform"`
	CreatedAt time.Time `json:"createdAt" bson:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updated_at"`
}

func ParsePlatform(s string) (Platform, error) {
	switch p := Platform(strings.ToLower(strings.TrimSpace(s))); p {
	case PlatformAndroid, PlatformIOS, PlatformWeb:
		return p, nil
	default:
		return "", ErrInvalidPlatform
	}
}
