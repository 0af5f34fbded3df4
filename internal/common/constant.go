// Package common contains shared constants and sentinel errors used across
// postkeeper components.
package common

// AccessTokenHeaderName is the gRPC metadata key used to carry the
// access token on outbound requests.
const AccessTokenHeaderName = "access_token"

// PostLimits bounds the text fields of a post draft.
type PostLimits struct {
	TitleMaxLength   int
	ContentMaxLength int
	MaxTags          int
	TagMaxLength     int
}

// MediaLimits bounds the media attached to a post draft.
type MediaLimits struct {
	MaxFiles    int
	MaxFileSize int64
	// ConcurrentUploads caps simultaneous byte transfers of one batch.
	ConcurrentUploads int
}

// Limits groups all form limits enforced by the client before anything is
// sent to the backend.
type Limits struct {
	Post  PostLimits
	Media MediaLimits
}

// FormLimits holds the limits shared by validation and the upload engine.
var FormLimits = Limits{
	Post: PostLimits{
		TitleMaxLength:   200,
		ContentMaxLength: 5000,
		MaxTags:          10,
		TagMaxLength:     50,
	},
	Media: MediaLimits{
		MaxFiles:          10,
		MaxFileSize:       50 << 20,
		ConcurrentUploads: 3,
	},
}
