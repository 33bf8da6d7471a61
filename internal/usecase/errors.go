package usecase

type ErrBadRequest string

func (e ErrBadRequest) Error() string { return string(e) }

type ErrNotFound string

func (e ErrNotFound) Error() string { return string(e) }

type ErrConflict string

func (e ErrConflict) Error() string { return string(e) }

// ErrUpstream means an external collaborator rejected or failed the call.
type ErrUpstream string

func (e ErrUpstream) Error() string { return string(e) }
