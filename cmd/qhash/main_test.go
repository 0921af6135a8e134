package main

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestParseLengths(t *testing.T) {
	Convey("Given a comma separated list", t, func() {
		lengths, err := parseLengths("1, 2,,8")
		So(err, ShouldBeNil)
		So(lengths, ShouldResemble, []int{1, 2, 8})
	})

	Convey("Given garbage", t, func() {
		_, err := parseLengths("1,two")
		So(err, ShouldNotBeNil)

		_, err = parseLengths(" , ")
		So(err, ShouldNotBeNil)
	})
}
