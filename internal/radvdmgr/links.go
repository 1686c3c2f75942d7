package radvdmgr

import (
	"errors"
	"fmt"

	"github.com/vishvananda/netlink"
	"github.com/vishvananda/netns"
)

// LinkChecker reports whether an interface exists, optionally inside a
// named network namespace.
type LinkChecker interface {
	LinkExists(nsName, ifname string) (bool, error)
}

type NetlinkChecker struct{}

func (NetlinkChecker) LinkExists(nsName, ifname string) (bool, error) {
	if nsName == "" {
		_, err := netlink.LinkByName(ifname)
		return linkResult(err)
	}

	nsHandle, err := netns.GetFromName(nsName)
	if err != nil {
		return false, fmt.Errorf("get netns %q: %w", nsName, err)
	}
	defer nsHandle.Close()

	h, err := netlink.NewHandleAt(nsHandle)
	if err != nil {
		return false, fmt.Errorf("create netlink handle for netns %q: %w", nsName, err)
	}
	defer h.Close()

	_, err = h.LinkByName(ifname)
	return linkResult(err)
}

func linkResult(err error) (bool, error) {
	if err == nil {
		return true, nil
	}
	var notFound netlink.LinkNotFoundError
	if errors.As(err, &notFound) {
		return false, nil
	}
	return false, err
}
