// Package profile implements the user profile view: it renders the displayed
// user's identity and follow controls and hands every action to the presenters.
package profile

import (
	"context"
	"io"
	"text/template"

	"tweeter/internal/presenter"
	"tweeter/internal/tweeter"
)

var profileTemplate = template.Must(template.New("profile").Parse(
	`{{if .Loading}}[loading]
{{end}}{{if .OtherUser}}Return to logged in user
{{end}}[avatar] {{.User.ImageURL}}
{{.User.Name}}
{{.User.Alias}}
{{if .CountsLoaded}}Followees: {{.Followees}} Followers: {{.Followers}}
{{end}}{{if .OtherUser}}{{if .Loading}}[...]{{else if .IsFollower}}[Unfollow]{{else}}[Follow]{{end}}
{{end}}`))

// renderData is what the template sees
type renderData struct {
	User         *tweeter.User
	OtherUser    bool
	Loading      bool
	IsFollower   bool
	CountsLoaded bool
	Followers    presenter.Count
	Followees    presenter.Count
}

// View is the profile screen for one session
type View struct {
	session   *presenter.Session
	presenter *presenter.UserInfoPresenter
	navigator *presenter.UserNavigator
}

// NewView wires a profile view to a session and a data source
func NewView(session *presenter.Session, messages presenter.MessageView, server presenter.Server) *View {
	return &View{
		session:   session,
		presenter: presenter.NewUserInfoPresenter(messages, server),
		navigator: presenter.NewUserNavigator(messages, session, server),
	}
}

// Session returns the session the view renders
func (v *View) Session() *presenter.Session {
	return v.session
}

// State returns the presenter's current snapshot
func (v *View) State() presenter.UserInfoState {
	return v.presenter.State()
}

// Show reloads follow status and counts for the displayed user
func (v *View) Show(ctx context.Context) presenter.UserInfoState {
	return v.presenter.Refresh(ctx, v.session.Token(), v.session.CurrentUser(), v.session.DisplayedUser())
}

// Navigate displays the user whose alias appears in eventTarget and reloads
// the profile when the displayed user changed
func (v *View) Navigate(ctx context.Context, eventTarget string) error {
	before := v.session.DisplayedUser()
	if err := v.navigator.NavigateToUser(ctx, eventTarget); err != nil {
		return err
	}
	if v.session.DisplayedUser() != before {
		v.Show(ctx)
	}
	return nil
}

// SwitchToLoggedInUser returns to the logged-in user's own profile
func (v *View) SwitchToLoggedInUser(ctx context.Context) {
	before := v.session.DisplayedUser()
	v.session.ReturnToLoggedInUser()
	if v.session.DisplayedUser() != before {
		v.Show(ctx)
	}
}

// FollowDisplayedUser follows the displayed user
func (v *View) FollowDisplayedUser(ctx context.Context) (presenter.UserInfoState, error) {
	return v.presenter.Follow(ctx, v.session.Token(), v.session.DisplayedUser())
}

// UnfollowDisplayedUser unfollows the displayed user
func (v *View) UnfollowDisplayedUser(ctx context.Context) (presenter.UserInfoState, error) {
	return v.presenter.Unfollow(ctx, v.session.Token(), v.session.DisplayedUser())
}

// Render writes the profile to w. Nothing is written without a logged-in
// session.
func (v *View) Render(w io.Writer) error {
	current := v.session.CurrentUser()
	displayed := v.session.DisplayedUser()
	if current == nil || displayed == nil || v.session.Token() == "" {
		return nil
	}

	st := v.presenter.State()
	return profileTemplate.Execute(w, renderData{
		User:         displayed,
		OtherUser:    v.session.Mode() == presenter.ShowingOtherUser,
		Loading:      st.IsLoading,
		IsFollower:   st.IsFollower,
		CountsLoaded: st.CountsLoaded(),
		Followers:    st.FollowerCount,
		Followees:    st.FolloweeCount,
	})
}
