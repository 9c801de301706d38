// Package seed builds the demo dataset the admin dashboard ships with and
// loads it into any set of repositories.
package seed

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/zatekoja/storeguard/internal/domain/entities"
	"github.com/zatekoja/storeguard/internal/domain/repositories"
)

// Dataset is a consistent set of demo records
type Dataset struct {
	Stores       []*entities.Store
	Payments     []*entities.Payment
	Transactions []*entities.PaymentTransaction
	Feedback     []*entities.Feedback
	Alerts       []*entities.Alert
}

// Repositories are the sinks a dataset is loaded into
type Repositories struct {
	Stores   repositories.StoreRepository
	Payments repositories.PaymentRepository
	Feedback repositories.FeedbackRepository
	Alerts   repositories.AlertRepository
}

// StableID derives a deterministic id so reseeding never duplicates records
func StableID(kind, key string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("storeguard/"+kind+"/"+key)).String()
}

type storeSeed struct {
	key          string
	name         string
	location     string
	email        string
	phone        string
	storeType    entities.StoreType
	status       entities.StoreStatus
	tier         entities.SubscriptionTier
	cameraCount  int
	lastActivity time.Duration
	age          time.Duration
	nvrEmail     string
	rtsp         string
	cameras      []entities.Camera
}

type paymentSeed struct {
	status    entities.PaymentStatus
	method    entities.PaymentMethod
	dueIn     time.Duration
	lastPaid  time.Duration
	txnSerial int
}

const day = 24 * time.Hour

var storeSeeds = []storeSeed{
	{
		key: "downtown-electronics", name: "Downtown Electronics", location: "123 Main St, New York, NY 10001",
		email: "john@downtown.com", phone: "+1 (555) 123-4567", storeType: entities.StoreTypeElectronics,
		status: entities.StoreStatusActive, tier: entities.TierPremium, cameraCount: 8,
		lastActivity: 2 * time.Hour, age: 240 * day,
		nvrEmail: "store@downtown.com", rtsp: "rtsp://192.168.1.100:554/stream",
		cameras: []entities.Camera{
			{Name: "Front Entrance", StreamType: entities.StreamTypeRTSP, Location: "Main entrance", Status: entities.CameraStatusOnline},
			{Name: "Cash Register", StreamType: entities.StreamTypeRTSP, Location: "Checkout area", Status: entities.CameraStatusOnline},
			{Name: "Storage Room", StreamType: entities.StreamTypeRTSP, Location: "Back storage", Status: entities.CameraStatusOffline},
		},
	},
	{
		key: "mall-security-center", name: "Mall Security Center", location: "456 Mall Ave, Los Angeles, CA",
		email: "security@mall.com", phone: "+1 (555) 987-6543", storeType: entities.StoreTypeMall,
		status: entities.StoreStatusActive, tier: entities.TierEnterprise, cameraCount: 12,
		lastActivity: 30 * time.Minute, age: 180 * day,
		nvrEmail: "nvr@mall.com", rtsp: "rtsp://192.168.1.101:554/stream",
		cameras: []entities.Camera{
			{Name: "Atrium", StreamType: entities.StreamTypeRTSP, Location: "Central atrium", Status: entities.CameraStatusOnline},
			{Name: "Parking Entrance", StreamType: entities.StreamTypeRTMP, Location: "Level 1 parking", Status: entities.CameraStatusOnline},
		},
	},
	{
		key: "retail-chain-store-5", name: "Retail Chain Store #5", location: "789 Commerce Blvd, Chicago, IL",
		email: "manager@retail.com", phone: "+1 (555) 456-7890", storeType: entities.StoreTypeRetail,
		status: entities.StoreStatusInactive, tier: entities.TierBasic, cameraCount: 6,
		lastActivity: 2 * day, age: 90 * day,
		nvrEmail: "nvr@retail.com", rtsp: "rtsp://192.168.1.102:554/stream",
		cameras: []entities.Camera{
			{Name: "Aisle 3", StreamType: entities.StreamTypeHTTP, Location: "Grocery aisle", Status: entities.CameraStatusOffline},
		},
	},
	{
		key: "jewelry-store-premium", name: "Jewelry Store Premium", location: "321 Luxury Lane, Miami, FL",
		email: "owner@jewelry.com", phone: "+1 (555) 234-5678", storeType: entities.StoreTypeJewelry,
		status: entities.StoreStatusActive, tier: entities.TierPremium, cameraCount: 4,
		lastActivity: time.Hour, age: 10 * day,
		nvrEmail: "nvr@jewelry.com", rtsp: "rtsp://192.168.1.103:554/stream",
		cameras: []entities.Camera{
			{Name: "Display Cases", StreamType: entities.StreamTypeRTSP, Location: "Showroom", Status: entities.CameraStatusOnline},
			{Name: "Safe Room", StreamType: entities.StreamTypeRTSP, Location: "Vault", Status: entities.CameraStatusOnline},
		},
	},
}

var paymentSeeds = []paymentSeed{
	{status: entities.PaymentStatusPaid, method: entities.PaymentMethodCreditCard, dueIn: 26 * day, lastPaid: 5 * day, txnSerial: 1234},
	{status: entities.PaymentStatusPaid, method: entities.PaymentMethodBankTransfer, dueIn: 29 * day, lastPaid: 2 * day, txnSerial: 2234},
	{status: entities.PaymentStatusOverdue, method: entities.PaymentMethodCreditCard, dueIn: -16 * day, lastPaid: 47 * day, txnSerial: 3234},
	{status: entities.PaymentStatusPending, method: entities.PaymentMethodPayPal, dueIn: 3 * day, lastPaid: 28 * day, txnSerial: 4234},
}

// Demo builds the demo dataset with timestamps relative to now
func Demo(now time.Time) *Dataset {
	now = now.UTC()
	d := &Dataset{}

	for i, s := range storeSeeds {
		storeID := StableID("store", s.key)
		last := now.Add(-s.lastActivity)
		created := now.Add(-s.age)
		store := &entities.Store{
			ID:             storeID,
			Name:           s.name,
			Location:       s.location,
			ContactEmail:   s.email,
			ContactPhone:   s.phone,
			Type:           s.storeType,
			Status:         s.status,
			Subscription:   s.tier,
			CameraCount:    s.cameraCount,
			NVR:            entities.NVRConnection{LoginEmail: s.nvrEmail, LoginPassword: "changeme", RTSPURL: s.rtsp, Port: 554},
			LastActivityAt: &last,
			CreatedAt:      created,
			UpdatedAt:      created,
		}
		for j, c := range s.cameras {
			c.ID = StableID("camera", fmt.Sprintf("%s/%d", s.key, j))
			c.StoreID = storeID
			c.CreatedAt = created
			store.Cameras = append(store.Cameras, c)
		}
		d.Stores = append(d.Stores, store)

		ps := paymentSeeds[i]
		plan, _ := entities.PlanFor(s.tier)
		lastPaid := now.Add(-ps.lastPaid)
		payment := &entities.Payment{
			ID:              StableID("payment", s.key),
			StoreID:         storeID,
			StoreName:       s.name,
			Plan:            s.tier,
			Amount:          plan.Price,
			Status:          ps.status,
			DueDate:         now.Add(ps.dueIn).Truncate(day),
			LastPaymentDate: &lastPaid,
			Method:          ps.method,
			TransactionID:   transactionRef(ps.txnSerial),
			CreatedAt:       created,
			UpdatedAt:       lastPaid,
		}
		d.Payments = append(d.Payments, payment)

		for m := 0; m < 4; m++ {
			status := entities.PaymentStatusPaid
			if m == 0 && ps.status != entities.PaymentStatusPaid {
				status = ps.status
			}
			d.Transactions = append(d.Transactions, &entities.PaymentTransaction{
				ID:            StableID("transaction", fmt.Sprintf("%s/%d", s.key, m)),
				PaymentID:     payment.ID,
				StoreID:       storeID,
				StoreName:     s.name,
				Date:          lastPaid.AddDate(0, -m, 0),
				Amount:        plan.Price,
				Plan:          s.tier,
				Status:        status,
				Method:        ps.method,
				TransactionID: transactionRef(ps.txnSerial - 111*m),
			})
		}
	}

	d.Feedback = demoFeedback(now, d.Stores)
	d.Alerts = demoAlerts(now, d.Stores)
	return d
}

func transactionRef(serial int) string {
	return fmt.Sprintf("TXN-%06d", serial)
}

func demoFeedback(now time.Time, stores []*entities.Store) []*entities.Feedback {
	items := []struct {
		user, email, subject, message string
		store                         int
		priority                      entities.Priority
		status                        entities.FeedbackStatus
		category                      entities.FeedbackCategory
		age                           time.Duration
	}{
		{"John Smith", "john@downtown.com", "Camera Quality Issue",
			"The camera feed quality has been poor lately, especially during night hours. We're getting blurry images that make it difficult to identify faces clearly.",
			0, entities.PriorityHigh, entities.FeedbackStatusUnresolved, entities.CategoryTechnical, 1 * day},
		{"Sarah Johnson", "security@mall.com", "False Alarm Notifications",
			"We're receiving too many false positive alerts. The system seems to trigger alerts for normal customer movements. Can this sensitivity be adjusted?",
			1, entities.PriorityMedium, entities.FeedbackStatusInProgress, entities.CategorySystem, 2 * day},
		{"Mike Wilson", "manager@retail.com", "Great Service!",
			"The theft detection system has been working perfectly. We caught two incidents last week thanks to the real-time alerts. Very satisfied with the service.",
			2, entities.PriorityLow, entities.FeedbackStatusResolved, entities.CategoryFeedback, 3 * day},
		{"Lisa Chen", "owner@jewelry.com", "Mobile App Issues",
			"The mobile app keeps crashing when I try to view live feeds. This is critical for our business as I need to monitor the store remotely.",
			3, entities.PriorityCritical, entities.FeedbackStatusUnresolved, entities.CategoryTechnical, 4 * day},
	}

	out := make([]*entities.Feedback, 0, len(items))
	for i, it := range items {
		submitted := now.Add(-it.age)
		fb := &entities.Feedback{
			ID:          StableID("feedback", fmt.Sprint(i+1)),
			UserName:    it.user,
			UserEmail:   it.email,
			StoreID:     stores[it.store].ID,
			StoreName:   stores[it.store].Name,
			Subject:     it.subject,
			Message:     it.message,
			Priority:    it.priority,
			Status:      it.status,
			Category:    it.category,
			SubmittedAt: submitted,
			CreatedAt:   submitted,
			UpdatedAt:   submitted,
		}
		if it.status == entities.FeedbackStatusResolved {
			resolved := submitted.Add(6 * time.Hour)
			fb.ResolvedAt = &resolved
			fb.UpdatedAt = resolved
		}
		out = append(out, fb)
	}
	return out
}

func demoAlerts(now time.Time, stores []*entities.Store) []*entities.Alert {
	items := []struct {
		store    int
		kind     string
		severity entities.Severity
		age      time.Duration
	}{
		{0, "Motion Detected", entities.SeverityHigh, 2 * time.Minute},
		{1, "Unauthorized Access", entities.SeverityCritical, 15 * time.Minute},
		{2, "Camera Offline", entities.SeverityMedium, time.Hour},
		{0, "Motion Detected", entities.SeverityLow, 2 * time.Hour},
		{0, "Person Detected", entities.SeverityMedium, 4 * time.Hour},
		{0, "Camera Offline", entities.SeverityHigh, day},
	}

	out := make([]*entities.Alert, 0, len(items))
	for i, it := range items {
		out = append(out, &entities.Alert{
			ID:         StableID("alert", fmt.Sprint(i+1)),
			StoreID:    stores[it.store].ID,
			StoreName:  stores[it.store].Name,
			Type:       it.kind,
			Severity:   it.severity,
			OccurredAt: now.Add(-it.age),
		})
	}
	return out
}

// Load writes the dataset through the repositories. Records that already
// exist are skipped so the command can be rerun.
func (d *Dataset) Load(ctx context.Context, repos Repositories) error {
	for _, s := range d.Stores {
		if _, err := repos.Stores.GetByID(ctx, s.ID); err == nil {
			log.Debug().Str("store", s.Name).Msg("store already seeded")
			continue
		}
		if err := repos.Stores.Create(ctx, s); err != nil {
			return fmt.Errorf("seed store %s: %w", s.Name, err)
		}
	}

	for _, p := range d.Payments {
		if _, err := repos.Payments.GetByID(ctx, p.ID); err == nil {
			continue
		}
		if err := repos.Payments.Create(ctx, p); err != nil {
			return fmt.Errorf("seed payment for %s: %w", p.StoreName, err)
		}
	}

	existing, err := repos.Payments.ListHistory(ctx, repositories.HistoryFilter{})
	if err != nil {
		return fmt.Errorf("seed history: %w", err)
	}
	seen := make(map[string]struct{}, len(existing))
	for _, t := range existing {
		seen[t.ID] = struct{}{}
	}
	for _, t := range d.Transactions {
		if _, ok := seen[t.ID]; ok {
			continue
		}
		if err := repos.Payments.RecordTransaction(ctx, t); err != nil {
			return fmt.Errorf("seed transaction %s: %w", t.TransactionID, err)
		}
	}

	for _, f := range d.Feedback {
		if _, err := repos.Feedback.GetByID(ctx, f.ID); err == nil {
			continue
		}
		if err := repos.Feedback.Create(ctx, f); err != nil {
			return fmt.Errorf("seed feedback %q: %w", f.Subject, err)
		}
	}

	if recent, err := repos.Alerts.ListRecent(ctx, 1); err == nil && len(recent) > 0 {
		log.Debug().Msg("alerts already seeded")
	} else {
		for _, a := range d.Alerts {
			if err := repos.Alerts.Create(ctx, a); err != nil {
				return fmt.Errorf("seed alert %s: %w", a.Type, err)
			}
		}
	}

	log.Info().
		Int("stores", len(d.Stores)).
		Int("payments", len(d.Payments)).
		Int("feedback", len(d.Feedback)).
		Int("alerts", len(d.Alerts)).
		Msg("demo data seeded")
	return nil
}
