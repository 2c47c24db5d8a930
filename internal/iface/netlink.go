package iface

import (
	"fmt"
	"net"
	"net/netip"

	"github.com/vishvananda/netlink"
)

// NetlinkLister reads interfaces, addresses and statistics over rtnetlink.
type NetlinkLister struct{}

// Interfaces implements Lister.
func (NetlinkLister) Interfaces() ([]Candidate, error) {
	links, err := netlink.LinkList()
	if err != nil {
		return nil, err
	}

	out := make([]Candidate, 0, len(links))
	for _, link := range links {
		attrs := link.Attrs()
		c := Candidate{
			Name:     attrs.Name,
			Up:       attrs.Flags&net.FlagUp != 0,
			Loopback: attrs.Flags&net.FlagLoopback != 0,
		}
		if st := attrs.Statistics; st != nil {
			c.RxBytes, c.TxBytes = st.RxBytes, st.TxBytes
		}
		addrs, err := netlink.AddrList(link, netlink.FAMILY_ALL)
		if err != nil {
			return nil, fmt.Errorf("failed to list addresses of %s: %w", attrs.Name, err)
		}
		for _, a := range addrs {
			if a.IPNet == nil {
				continue
			}
			if ip, ok := netip.AddrFromSlice(a.IPNet.IP); ok {
				c.Addrs = append(c.Addrs, ip.Unmap())
			}
		}
		out = append(out, c)
	}
	return out, nil
}

// Counters returns the cumulative received and transmitted bytes of the
// named interface.
func (NetlinkLister) Counters(name string) (rx, tx uint64, err error) {
	link, err := netlink.LinkByName(name)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %s: %v", ErrNotFound, name, err)
	}
	st := link.Attrs().Statistics
	if st == nil {
		return 0, 0, nil
	}
	return st.RxBytes, st.TxBytes, nil
}
