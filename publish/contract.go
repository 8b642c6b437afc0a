// Package publish drives the site's web-form workflow. A ChapterPublisher
// moves one chapter through draft and publish, a BookPublisher creates and
// configures a book and feeds it its chapters in order, and an Orchestrator
// publishes many books concurrently while isolating their failures.
package publish

import (
	"fmt"

	"github.com/fwojciec/syopub"
)

// Paths of the site's form workflow. %s is a book id.
const (
	createBookPath  = "/usernovel/add/"
	receptionsPath  = "/draftnovelmanage/receptionsinput/ncode/%s/"
	updateInputPath = "/draftnovelmanage/updateinput/ncode/%s/"
	draftInputPath  = "/draftepisode/input/ncode/%s/"
	draftAddPath    = "/draftepisode/add/ncode/%s/"
	postConfirmPath = "/draftepisode/postconfirmapi/"
	postAPIPath     = "/draftepisode/postapi/"
)

// Redirect targets carrying newly assigned ids.
const (
	bookIDPattern  = `/usernovelmanage/top/ncode/(\d+)/`
	draftIDPattern = `/draftepisode/view/draftepisodeid/(\d+)/`
)

const (
	// manageFormID identifies the settings and metadata forms.
	manageFormID = "usernovelmanageForm"

	// tokenField is the one-time token input on the draft page.
	tokenField = "csrf_onetimepass"

	// saveMode is the label of the "save" button on the create form.
	saveMode = "保存する"

	// maxFileSize mirrors the hidden upload limit on the draft form.
	maxFileSize = "1048576"
)

// DefaultDescription is submitted when a book has no description; the site
// rejects an empty synopsis.
const DefaultDescription = "あらすじは現在準備中です。しばらくお待ちください。"

func statusError(res *syopub.Response, want string) error {
	return syopub.Errorf(syopub.ESTATUS, "%s %s: expected %s, got status %d",
		res.Method, res.URL, want, res.StatusCode)
}

func flag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

func bookPath(format, bookID string) string {
	return fmt.Sprintf(format, bookID)
}
