package audit_test

import (
	"context"
	"log/slog"
	"os"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/akira-ishikawa-jpg/coin-system/internal/audit"
	auditDatamodel "github.com/akira-ishikawa-jpg/coin-system/internal/core/datamodel/audit"
)

// Mock repository holding rows newest first.
type mockAuditRepository struct {
	rows   []*auditDatamodel.AuditLog
	nextID int64
}

func (m *mockAuditRepository) Create(entry *auditDatamodel.AuditLog) error {
	m.nextID++
	entry.ID = m.nextID
	m.rows = append([]*auditDatamodel.AuditLog{entry}, m.rows...)
	return nil
}

func (m *mockAuditRepository) List(action string, limit, offset int) ([]*auditDatamodel.AuditLog, error) {
	out := make([]*auditDatamodel.AuditLog, 0)
	for _, row := range m.rows {
		if action == "" || row.Action == action {
			out = append(out, row)
		}
	}
	return out, nil
}

var _ = Describe("AuditService", func() {
	var (
		service  *audit.Service
		mockRepo *mockAuditRepository
		ctx      context.Context
	)

	BeforeEach(func() {
		mockRepo = &mockAuditRepository{}
		logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
		service = audit.NewService(mockRepo, logger)
		ctx = context.Background()
	})

	Describe("Record", func() {
		It("should store the payload as JSON with the actor", func() {
			// When
			err := service.Record(ctx, audit.ActionBonusGranted, "admin-1", map[string]interface{}{
				"employee_id": "emp-1",
				"coins":       50,
			})

			// Then
			Expect(err).ToNot(HaveOccurred())
			Expect(mockRepo.rows).To(HaveLen(1))
			row := mockRepo.rows[0]
			Expect(row.Action).To(Equal(audit.ActionBonusGranted))
			Expect(*row.ActorID).To(Equal("admin-1"))
			Expect(row.Payload).To(ContainSubstring(`"employee_id":"emp-1"`))
		})

		It("should store a system action without an actor", func() {
			// When
			err := service.Record(ctx, audit.ActionWeeklyReset, "", map[string]interface{}{"employees": 4})

			// Then
			Expect(err).ToNot(HaveOccurred())
			Expect(mockRepo.rows[0].ActorID).To(BeNil())
		})
	})

	Describe("List", func() {
		It("should decode payloads and filter by action", func() {
			// Given
			Expect(service.Record(ctx, audit.ActionAnomalyDetected, "emp-1", map[string]interface{}{"summary": "spam"})).To(Succeed())
			Expect(service.Record(ctx, audit.ActionRoleChanged, "admin-1", map[string]interface{}{"role": "admin"})).To(Succeed())

			// When
			entries, err := service.List(audit.ActionAnomalyDetected, 50, 0)

			// Then
			Expect(err).ToNot(HaveOccurred())
			Expect(entries).To(HaveLen(1))
			Expect(entries[0].Payload["summary"]).To(Equal("spam"))
		})

		It("should wrap a non-JSON payload instead of failing", func() {
			// Given
			Expect(mockRepo.Create(&auditDatamodel.AuditLog{Action: "legacy", Payload: "not json"})).To(Succeed())

			// When
			entries, err := service.List("", 50, 0)

			// Then
			Expect(err).ToNot(HaveOccurred())
			Expect(entries[0].Payload["raw"]).To(Equal("not json"))
		})
	})
})
