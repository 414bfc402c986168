package routes

import "strconv"

const (
	Home           = "/"
	Login          = "/login"
	TwoFactor      = "/login/2fa"
	Logout         = "/logout"
	Register       = "/register"
	ForgotPassword = "/forgot-password"
	ResetPassword  = "/reset-password"
	VerifyEmail    = "/verify-email"
	OAuthLogin     = "/oauth/login"
	OAuthCallback  = "/oauth/callback"
	Dashboard      = "/dashboard"
	TwoFactorSetup = "/dashboard/2fa"
	Avatar         = "/profile/avatar"
	Events         = "/events"
	Health         = "/health"
	Metrics        = "/metrics"

	Posts      = "/posts"
	NewPost    = "/posts/new"
	Post       = "/posts/{id}"
	EditPost   = "/posts/{id}/edit"
	DeletePost = "/posts/{id}/delete"
	ReviewPost = "/posts/{id}/review"
	CoverPost  = "/posts/{id}/cover"

	APIPosts      = "/api/v1/posts"
	APIPost       = "/api/v1/posts/{id}"
	APIPostReview = "/api/v1/posts/{id}/review"
)

// PostPath e variantes montam os caminhos concretos de um post; as views
// usam isso em links e formulários em vez de interpolar à mão.
func PostPath(id int64) string {
	return Posts + "/" + strconv.FormatInt(id, 10)
}

func EditPostPath(id int64) string {
	return PostPath(id) + "/edit"
}

func DeletePostPath(id int64) string {
	return PostPath(id) + "/delete"
}

func ReviewPostPath(id int64) string {
	return PostPath(id) + "/review"
}

func CoverPostPath(id int64) string {
	return PostPath(id) + "/cover"
}
