package main

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
	"syscall"

	"golang.org/x/sys/unix"
)

// readInputEventsEpoll reads raw input events from an evdev device using
// epoll, so a quiet device costs nothing and reads never park an OS thread
// in a blocking read that would outlive shutdown.
func readInputEventsEpoll(f *os.File, events chan<- inputEvent, readErr chan<- error) {
	epfd, err := unix.EpollCreate1(0)
	if err != nil {
		readErr <- fmt.Errorf("epoll_create1: %w", err)
		return
	}
	defer unix.Close(epfd)

	fd := int(f.Fd())
	event := unix.EpollEvent{
		Events: unix.EPOLLIN,
		Fd:     int32(fd),
	}
	if err := unix.EpollCtl(epfd, unix.EPOLL_CTL_ADD, fd, &event); err != nil {
		readErr <- fmt.Errorf("epoll_ctl_add: %w", err)
		return
	}

	const maxEvents = 8
	epollEvents := make([]unix.EpollEvent, maxEvents)
	evSize := binary.Size(inputEvent{})
	buf := make([]byte, evSize)
	reader := bytes.NewReader(buf)

	for {
		n, err := unix.EpollWait(epfd, epollEvents, -1)
		if err != nil {
			if err == syscall.EINTR {
				continue
			}
			readErr <- fmt.Errorf("epoll_wait: %w", err)
			return
		}

		for i := 0; i < n; i++ {
			if epollEvents[i].Events&(unix.EPOLLERR|unix.EPOLLHUP) != 0 {
				readErr <- fmt.Errorf("device error/hangup: %s", f.Name())
				return
			}

			nr, err := unix.Read(fd, buf)
			if err != nil {
				if err == syscall.EINTR || err == syscall.EAGAIN {
					continue
				}
				readErr <- fmt.Errorf("read %s: %w", f.Name(), err)
				return
			}
			if nr < evSize {
				continue
			}

			reader.Reset(buf)
			var ev inputEvent
			if err := binary.Read(reader, binary.LittleEndian, &ev); err != nil {
				continue
			}
			events <- ev
		}
	}
}
