package responder

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/smartystreets/goconvey/convey"
)

func TestTypedErrors(t *testing.T) {
	convey.Convey("typed errors match their sentinels", t, func() {
		var err error = &MalformedRequestError{Field: PatternKey, Reason: "is missing"}
		convey.So(errors.Is(err, ErrMalformedRequest), convey.ShouldBeTrue)
		convey.So(errors.Is(err, ErrTemplateSubstitution), convey.ShouldBeFalse)
		convey.So(err.Error(), convey.ShouldEqual, "malformed request: PATTERN is missing")

		err = &TemplateSubstitutionError{Key: "HOST", Template: "%(HOST)s"}
		convey.So(errors.Is(err, ErrTemplateSubstitution), convey.ShouldBeTrue)
		convey.So(err.Error(), convey.ShouldContainSubstring, `"HOST"`)
	})
	convey.Convey("wrapped causes stay reachable", t, func() {
		err := fmt.Errorf("run: %w", &TransportError{Op: "receive", Err: context.DeadlineExceeded})
		convey.So(errors.Is(err, ErrTransport), convey.ShouldBeTrue)
		convey.So(errors.Is(err, context.DeadlineExceeded), convey.ShouldBeTrue)
		var transportErr *TransportError
		convey.So(errors.As(err, &transportErr), convey.ShouldBeTrue)
		convey.So(transportErr.Op, convey.ShouldEqual, "receive")

		cause := errors.New("not a number")
		err = &ConfigurationError{Field: "code", Value: "abc", Err: cause}
		convey.So(errors.Is(err, ErrConfiguration), convey.ShouldBeTrue)
		convey.So(errors.Is(err, cause), convey.ShouldBeTrue)
		convey.So(err.Error(), convey.ShouldEqual, "invalid code abc: not a number")
		convey.So((&ConfigurationError{Field: "code", Value: 0}).Error(), convey.ShouldEqual, "invalid code 0")
	})
}
