package domain

// Customer — покупатель. Запись неизменяема после создания:
// идентификатор назначается хранилищем, остальные поля не редактируются.
type Customer struct {
	ID    uint64
	Name  string
	Email string
	// Version нужен только для единообразного контракта хранилища;
	// клиенты никогда не обновляют покупателей.
	Version uint64
}

// Identity возвращает идентификатор и версию записи для хранилища.
func (c Customer) Identity() (id, version uint64) {
	return c.ID, c.Version
}

// WithIdentity возвращает копию покупателя с заданными id и версией.
func (c Customer) WithIdentity(id, version uint64) Customer {
	c.ID = id
	c.Version = version
	return c
}

// Clone возвращает независимую копию записи.
func (c Customer) Clone() Customer {
	return c
}

// ValidateInvariants проверяет обязательные поля покупателя.
func (c Customer) ValidateInvariants() []error {
	var errs []error

	if c.Name == "" {
		errs = append(errs, ErrNameRequired)
	}
	if c.Email == "" {
		errs = append(errs, ErrEmailRequired)
	}

	return errs
}
