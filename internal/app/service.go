package app

import "time"

type Service struct {
	Clock func() time.Time
}

func NewService() Service {
	return Service{Clock: time.Now}
}

func (s Service) now() time.Time {
	if s.Clock != nil {
		return s.Clock().UTC()
	}
	return time.Now().UTC()
}
