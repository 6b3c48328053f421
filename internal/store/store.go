// Package store реализует контракт согласованности между локальным кешем
// и бэкендом — системой записи. Каждая мутация проходит один и тот же
// цикл: оптимистичная запись в кеш → запрос к бэкенду → замена
// авторитетным ответом и инвалидация зависимых представлений при успехе,
// откат к последнему подтвержденному снимку при неудаче.
package store

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/akhmadev/gym-membership-service/internal/cache"
	"github.com/akhmadev/gym-membership-service/internal/domain"
	"github.com/akhmadev/gym-membership-service/internal/ledger"
	"github.com/akhmadev/gym-membership-service/internal/lifecycle"
	"github.com/akhmadev/gym-membership-service/internal/metrics"
	"github.com/akhmadev/gym-membership-service/pkg/logger"
)

// defaultPageLimit размер страницы по умолчанию; кешируется только первая
// страница с этим лимитом, остальные запросы идут мимо кеша
const defaultPageLimit = 50

// Backend интерфейс бэкенда, которым владеет store.
// Реализуется клиентом gymapi; в тестах подменяется моком.
type Backend interface {
	CreateSubscription(ctx context.Context, clientID uuid.UUID, req domain.CreateSubscriptionRequest) (domain.Subscription, error)
	ListSubscriptions(ctx context.Context, clientID uuid.UUID, limit, offset int) ([]domain.Subscription, error)
	GetActiveSubscription(ctx context.Context, clientID uuid.UUID) (domain.Subscription, error)
	RenewSubscription(ctx context.Context, clientID, subscriptionID uuid.UUID, req domain.RenewSubscriptionRequest) (domain.Subscription, error)
	CancelSubscription(ctx context.Context, clientID, subscriptionID uuid.UUID, req domain.CancelSubscriptionRequest) (domain.Subscription, error)
	RecordPayment(ctx context.Context, subscriptionID uuid.UUID, req domain.RecordPaymentRequest) (domain.PaymentConfirmation, error)
	ListPayments(ctx context.Context, subscriptionID uuid.UUID, limit, offset int) ([]domain.Payment, error)
	GetPaymentStats(ctx context.Context, subscriptionID uuid.UUID) (domain.PaymentStats, error)
	ApplyReward(ctx context.Context, rewardID uuid.UUID, req domain.ApplyRewardRequest) error
}

// Store координирует кеш и бэкенд
type Store struct {
	backend Backend
	cache   cache.Cache
	ledger  *ledger.Ledger
	metrics metrics.MembershipMetrics
	log     *logger.Logger
	now     func() time.Time
}

// New создает новый координатор согласованности
func New(backend Backend, c cache.Cache, l *ledger.Ledger, m metrics.MembershipMetrics, log *logger.Logger) *Store {
	return &Store{
		backend: backend,
		cache:   c,
		ledger:  l,
		metrics: m,
		log:     log,
		now:     time.Now,
	}
}

// SetClock подменяет источник времени; нужен тестам
func (s *Store) SetClock(now func() time.Time) {
	s.now = now
}

// ---------------------------------------------------------------------------
// Чтения: кеш обслуживает запрос внутри окна устаревания, после — бэкенд
// ---------------------------------------------------------------------------

// ClientSubscriptions возвращает абонементы клиента.
// Кешируется только представление по умолчанию (первая страница).
func (s *Store) ClientSubscriptions(ctx context.Context, clientID uuid.UUID, limit, offset int) ([]domain.Subscription, error) {
	if limit <= 0 {
		limit = defaultPageLimit
	}

	cacheable := offset == 0 && limit == defaultPageLimit

	if cacheable {
		cached, err := s.cache.GetClientSubscriptions(ctx, clientID)
		if err != nil {
			s.log.Warnw("Cache read failed, falling through to backend", "clientID", clientID, "error", err)
		}
		if cached != nil {
			return cached, nil
		}
	}

	subs, err := s.backend.ListSubscriptions(ctx, clientID, limit, offset)
	if err != nil {
		return nil, err
	}

	if cacheable {
		if err := s.cache.SetClientSubscriptions(ctx, clientID, subs); err != nil {
			s.log.Warnw("Failed to cache client subscriptions", "clientID", clientID, "error", err)
		}
	}

	return subs, nil
}

// ActiveSubscription возвращает текущий действующий абонемент клиента.
// Кешированная запись, которая по датам уже истекла, считается устаревшей:
// проекция истечения — повод сходить за авторитетным статусом.
func (s *Store) ActiveSubscription(ctx context.Context, clientID uuid.UUID) (domain.Subscription, error) {
	cached, err := s.cache.GetActiveSubscription(ctx, clientID)
	if err != nil {
		s.log.Warnw("Cache read failed, falling through to backend", "clientID", clientID, "error", err)
	}
	if cached != nil && lifecycle.EffectiveStatus(*cached, s.now()) == cached.Status {
		return *cached, nil
	}

	sub, err := s.backend.GetActiveSubscription(ctx, clientID)
	if err != nil {
		return domain.Subscription{}, err
	}

	if err := s.cache.SetActiveSubscription(ctx, clientID, &sub); err != nil {
		s.log.Warnw("Failed to cache active subscription", "clientID", clientID, "error", err)
	}

	return sub, nil
}

// Subscription возвращает один абонемент клиента. Бэкенд не дает точечного
// чтения по id, поэтому промах кеша обслуживается через список клиента.
func (s *Store) Subscription(ctx context.Context, clientID, subscriptionID uuid.UUID) (domain.Subscription, error) {
	cached, err := s.cache.GetSubscription(ctx, subscriptionID)
	if err != nil {
		s.log.Warnw("Cache read failed, falling through to backend", "subscriptionID", subscriptionID, "error", err)
	}
	if cached != nil {
		return *cached, nil
	}

	subs, err := s.backend.ListSubscriptions(ctx, clientID, defaultPageLimit, 0)
	if err != nil {
		return domain.Subscription{}, err
	}

	if err := s.cache.SetClientSubscriptions(ctx, clientID, subs); err != nil {
		s.log.Warnw("Failed to cache client subscriptions", "clientID", clientID, "error", err)
	}

	for i := range subs {
		if subs[i].ID == subscriptionID {
			if err := s.cache.SetSubscription(ctx, &subs[i]); err != nil {
				s.log.Warnw("Failed to cache subscription", "subscriptionID", subscriptionID, "error", err)
			}
			return subs[i], nil
		}
	}

	return domain.Subscription{}, domain.NewNotFoundError("subscription", subscriptionID.String())
}

// Payments возвращает журнал платежей абонемента
func (s *Store) Payments(ctx context.Context, subscriptionID uuid.UUID, limit, offset int) ([]domain.Payment, error) {
	if limit <= 0 {
		limit = defaultPageLimit
	}

	cacheable := offset == 0 && limit == defaultPageLimit

	if cacheable {
		cached, err := s.cache.GetPayments(ctx, subscriptionID)
		if err != nil {
			s.log.Warnw("Cache read failed, falling through to backend", "subscriptionID", subscriptionID, "error", err)
		}
		if cached != nil {
			return cached, nil
		}
	}

	payments, err := s.backend.ListPayments(ctx, subscriptionID, limit, offset)
	if err != nil {
		return nil, err
	}

	if cacheable {
		if err := s.cache.SetPayments(ctx, subscriptionID, payments); err != nil {
			s.log.Warnw("Failed to cache payments", "subscriptionID", subscriptionID, "error", err)
		}
	}

	return payments, nil
}

// PaymentStats возвращает платежную статистику абонемента
func (s *Store) PaymentStats(ctx context.Context, subscriptionID uuid.UUID) (domain.PaymentStats, error) {
	cached, err := s.cache.GetPaymentStats(ctx, subscriptionID)
	if err != nil {
		s.log.Warnw("Cache read failed, falling through to backend", "subscriptionID", subscriptionID, "error", err)
	}
	if cached != nil {
		return *cached, nil
	}

	stats, err := s.backend.GetPaymentStats(ctx, subscriptionID)
	if err != nil {
		return domain.PaymentStats{}, err
	}

	s.reconcileJournal(ctx, subscriptionID, stats)

	if err := s.cache.SetPaymentStats(ctx, subscriptionID, &stats); err != nil {
		s.log.Warnw("Failed to cache payment stats", "subscriptionID", subscriptionID, "error", err)
	}

	return stats, nil
}

// reconcileJournal сверяет кешированный журнал платежей с авторитетной
// статистикой. Показатели выводимы повтором журнала; расхождение значит,
// что кешированный журнал отстал, и он сбрасывается, не дожидаясь TTL.
// Журнал, упершийся в лимит страницы, может быть неполным и не сверяется.
func (s *Store) reconcileJournal(ctx context.Context, subscriptionID uuid.UUID, authoritative domain.PaymentStats) {
	payments, err := s.cache.GetPayments(ctx, subscriptionID)
	if err != nil || payments == nil || len(payments) >= defaultPageLimit {
		return
	}

	price := authoritative.TotalAmountPaid + authoritative.RemainingDebt
	derived := s.ledger.ComputeStats(payments, price)
	if derived.TotalPayments == authoritative.TotalPayments && derived.TotalAmountPaid == authoritative.TotalAmountPaid {
		return
	}

	s.log.Warnw("Cached payment journal drifted from authoritative stats",
		"subscriptionID", subscriptionID,
		"cachedPayments", derived.TotalPayments,
		"cachedPaid", derived.TotalAmountPaid,
		"authoritativePayments", authoritative.TotalPayments,
		"authoritativePaid", authoritative.TotalAmountPaid)
	s.invalidate(ctx, "payments", s.cache.InvalidatePayments(ctx, subscriptionID))
}
