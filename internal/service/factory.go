package service

import "log/slog"

type Services struct {
	dispatcher Dispatcher
	authorizer SenderAuthorizer
	logger     *slog.Logger
}

func NewServices(dispatcher Dispatcher, authorizer SenderAuthorizer, logger *slog.Logger) *Services {
	return &Services{
		dispatcher: dispatcher,
		authorizer: authorizer,
		logger:     logger,
	}
}

func (s *Services) Messages() MessageIngestService {
	return NewMessageIngestService(s.dispatcher, s.logger)
}

func (s *Services) Commands() CommandService {
	return NewCommandService(s.authorizer)
}
