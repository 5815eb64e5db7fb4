package intake

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terra-clan/recruitment-portal/internal/catalog"
	"github.com/terra-clan/recruitment-portal/internal/models"
	"github.com/terra-clan/recruitment-portal/internal/session"
)

// stubGateway counts calls and returns err, optionally blocking until release is closed
type stubGateway struct {
	calls   int32
	err     error
	release chan struct{}
	started chan struct{}

	mu      sync.Mutex
	records []*models.ApplicationRecord
}

func (g *stubGateway) Append(ctx context.Context, record *models.ApplicationRecord) error {
	atomic.AddInt32(&g.calls, 1)
	g.mu.Lock()
	g.records = append(g.records, record)
	g.mu.Unlock()

	if g.started != nil {
		g.started <- struct{}{}
	}
	if g.release != nil {
		select {
		case <-g.release:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return g.err
}

func (g *stubGateway) callCount() int {
	return int(atomic.LoadInt32(&g.calls))
}

func testCatalog(t *testing.T) *catalog.Loader {
	t.Helper()
	loader := catalog.NewLoader()
	require.NoError(t, loader.LoadDefault())
	return loader
}

func newTestForm(t *testing.T, gw Gateway) *Form {
	t.Helper()
	f := NewForm("client-1", Config{
		Catalog: testCatalog(t),
		Gateway: gw,
		Emails:  session.MustMatcher(session.DefaultEmailDomain),
	})
	require.NoError(t, f.Mount(&models.Session{Email: "asha@vit.edu.in", Authenticated: true}, ""))
	return f
}

func fillValid(t *testing.T, f *Form) {
	t.Helper()
	require.NoError(t, f.SetFields(map[string]string{
		models.FieldName:            "Asha Rao",
		models.FieldPhone:           "9876543210",
		models.FieldRollNumber:      "21101A0001",
		models.FieldBranch:          "CMPN",
		models.FieldYear:            "2nd Year",
		models.FieldPrimaryDomain:   "tech",
		models.FieldSecondaryDomain: "design-ui-ux",
		models.FieldWhyGDG:          "To learn with peers",
		models.FieldExperience:      "Built a few web apps",
		"tech_q1":                   "Go and TypeScript",
		"tech_q2":                   "A campus event tracker",
		"tech_q3":                   "Docs and videos",
		"designuiux_q1":             "Figma",
		"designuiux_q2":             "Simplified a signup flow",
		"designuiux_q3":             "Usability tests",
	}))
}

func TestMountRequiresSession(t *testing.T) {
	f := NewForm("c", Config{Catalog: testCatalog(t), Gateway: &stubGateway{}, Emails: session.MustMatcher("vit.edu.in")})

	assert.ErrorIs(t, f.Mount(nil, ""), ErrNoSession)
	assert.ErrorIs(t, f.Mount(&models.Session{Email: "a@vit.edu.in"}, ""), ErrNoSession)
	assert.ErrorIs(t, f.SetField(models.FieldName, "x"), ErrNoSession)
	assert.ErrorIs(t, f.Submit(context.Background()), ErrNoSession)
}

func TestMountPrefillsEmailAndDepartment(t *testing.T) {
	f := NewForm("c", Config{Catalog: testCatalog(t), Gateway: &stubGateway{}, Emails: session.MustMatcher("vit.edu.in")})
	sess := &models.Session{Email: "asha@vit.edu.in", Authenticated: true}

	require.NoError(t, f.Mount(sess, "media"))
	assert.Equal(t, "asha@vit.edu.in", f.Value(models.FieldEmail))
	assert.Equal(t, "media", f.Value(models.FieldPrimaryDomain))

	require.NoError(t, f.Mount(sess, "finance"))
	assert.Equal(t, "media", f.Value(models.FieldPrimaryDomain), "an existing choice is kept")

	other := NewForm("d", Config{Catalog: testCatalog(t), Gateway: &stubGateway{}, Emails: session.MustMatcher("vit.edu.in")})
	require.NoError(t, other.Mount(sess, "astronomy"))
	assert.Empty(t, other.Value(models.FieldPrimaryDomain), "unknown departments are ignored")
}

func TestSetFieldRules(t *testing.T) {
	f := newTestForm(t, &stubGateway{})

	assert.ErrorIs(t, f.SetField(models.FieldEmail, "other@vit.edu.in"), ErrReadOnlyField)
	assert.Equal(t, "asha@vit.edu.in", f.Value(models.FieldEmail))

	assert.ErrorIs(t, f.SetField("tech_q1", "early"), ErrUnknownField, "question not active yet")
	assert.ErrorIs(t, f.SetField("nickname", "x"), ErrUnknownField)

	err := f.SetFields(map[string]string{models.FieldName: "Asha", "nickname": "x"})
	assert.ErrorIs(t, err, ErrUnknownField)
	assert.Empty(t, f.Value(models.FieldName), "rejected batches apply nothing")

	require.NoError(t, f.SetFields(map[string]string{
		models.FieldPrimaryDomain: "tech",
		"tech_q1":                 "answer",
	}))
	got, ok := f.Answer("tech_q1")
	assert.True(t, ok)
	assert.Equal(t, "answer", got)
}

func TestActiveQuestions(t *testing.T) {
	f := newTestForm(t, &stubGateway{})
	ids := func() []string {
		var out []string
		for _, q := range f.ActiveQuestions() {
			out = append(out, q.ID)
		}
		return out
	}

	assert.Empty(t, f.ActiveQuestions())

	require.NoError(t, f.SetField(models.FieldPrimaryDomain, "tech"))
	assert.Equal(t, []string{"tech_q1", "tech_q2", "tech_q3"}, ids())

	require.NoError(t, f.SetField(models.FieldSecondaryDomain, "design-ui-ux"))
	assert.Equal(t, []string{
		"tech_q1", "tech_q2", "tech_q3",
		"designuiux_q1", "designuiux_q2", "designuiux_q3",
	}, ids())

	require.NoError(t, f.SetField(models.FieldSecondaryDomain, "tech"))
	assert.Equal(t, []string{"tech_q1", "tech_q2", "tech_q3"}, ids(), "same domain is not repeated")

	for _, o := range f.SecondaryOptions() {
		assert.NotEqual(t, "tech", o.ID)
	}
}

func TestStaleAnswersAreRetained(t *testing.T) {
	f := newTestForm(t, &stubGateway{})

	require.NoError(t, f.SetFields(map[string]string{models.FieldPrimaryDomain: "tech", "tech_q1": "kept"}))
	require.NoError(t, f.SetField(models.FieldPrimaryDomain, "media"))

	view := f.View()
	assert.NotContains(t, view.Answers, "tech_q1", "hidden while tech is not selected")
	got, ok := f.Answer("tech_q1")
	assert.True(t, ok)
	assert.Equal(t, "kept", got)

	require.NoError(t, f.SetField(models.FieldPrimaryDomain, "tech"))
	assert.Equal(t, "kept", f.View().Answers["tech_q1"])
}

func TestValidate(t *testing.T) {
	f := newTestForm(t, &stubGateway{})

	invalid := f.Validate()
	assert.Equal(t, "Name is required", invalid[models.FieldName])
	assert.Equal(t, "Primary domain is required", invalid[models.FieldPrimaryDomain])
	assert.NotContains(t, invalid, models.FieldEmail)
	assert.NotContains(t, invalid, models.FieldSecondaryDomain)
	assert.NotContains(t, invalid, models.FieldPortfolio)
	assert.Equal(t, models.SubmissionIdle, f.State().Status)

	fillValid(t, f)
	assert.Empty(t, f.Validate())

	require.NoError(t, f.SetField("tech_q2", "   "))
	assert.Equal(t, map[string]string{"tech_q2": msgQuestionRequired}, f.Validate())

	view := f.View()
	assert.Equal(t, models.FieldInvalid, view.FieldStates["tech_q2"].Status)
	assert.Equal(t, models.FieldValid, view.FieldStates["tech_q1"].Status)

	require.NoError(t, f.SetField("tech_q2", "fixed"))
	assert.Equal(t, models.FieldValid, f.View().FieldStates["tech_q2"].Status, "revalidated on change")
}

func TestValidateEmailFromForeignSession(t *testing.T) {
	f := NewForm("c", Config{Catalog: testCatalog(t), Gateway: &stubGateway{}, Emails: session.MustMatcher("vit.edu.in")})
	require.NoError(t, f.Mount(&models.Session{Email: "asha@gmail.com", Authenticated: true}, ""))

	assert.Equal(t, msgInvalidEmail, f.Validate()[models.FieldEmail])
}

func TestValidateSecondaryDomain(t *testing.T) {
	f := newTestForm(t, &stubGateway{})
	fillValid(t, f)

	require.NoError(t, f.SetField(models.FieldSecondaryDomain, "tech"))
	assert.Equal(t, msgSameDomain, f.Validate()[models.FieldSecondaryDomain])

	require.NoError(t, f.SetField(models.FieldSecondaryDomain, "astronomy"))
	assert.Equal(t, msgUnknownDomain, f.Validate()[models.FieldSecondaryDomain])

	require.NoError(t, f.SetField(models.FieldSecondaryDomain, ""))
	assert.Empty(t, f.Validate())
}

func TestSubmitWithoutPrimaryDomainNeverCallsGateway(t *testing.T) {
	gw := &stubGateway{}
	f := newTestForm(t, gw)
	fillValid(t, f)
	require.NoError(t, f.SetField(models.FieldPrimaryDomain, ""))

	err := f.Submit(context.Background())

	assert.ErrorIs(t, err, ErrMissingDomain)
	assert.Equal(t, 0, gw.callCount())
	assert.Equal(t, models.SubmissionState{Status: models.SubmissionFailed, Reason: ReasonMissingDomain}, f.State())
}

func TestSubmitInvalidFormNeverCallsGateway(t *testing.T) {
	gw := &stubGateway{}
	f := newTestForm(t, gw)
	fillValid(t, f)
	require.NoError(t, f.SetField(models.FieldPhone, ""))

	err := f.Submit(context.Background())

	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, map[string]string{models.FieldPhone: "Phone number is required"}, vErr.Fields)
	assert.Equal(t, 0, gw.callCount())
	assert.Equal(t, models.SubmissionIdle, f.State().Status, "state is left as it was")
}

type outcomes struct {
	mu   sync.Mutex
	seen []string
}

func (o *outcomes) ObserveSubmission(outcome string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.seen = append(o.seen, outcome)
}

func TestRejectedSubmitsAreRecorded(t *testing.T) {
	rec := &outcomes{}
	gw := &stubGateway{}
	f := NewForm("c", Config{
		Catalog:  testCatalog(t),
		Gateway:  gw,
		Emails:   session.MustMatcher("vit.edu.in"),
		Recorder: rec,
	})
	require.NoError(t, f.Mount(&models.Session{Email: "asha@vit.edu.in", Authenticated: true}, ""))

	assert.ErrorIs(t, f.Submit(context.Background()), ErrMissingDomain)
	require.NoError(t, f.SetField(models.FieldPrimaryDomain, "docs"))
	var vErr *ValidationError
	assert.ErrorAs(t, f.Submit(context.Background()), &vErr)

	assert.Equal(t, []string{"rejected", "rejected"}, rec.seen)
	assert.Equal(t, models.SubmissionState{Status: models.SubmissionFailed, Reason: ReasonMissingDomain}, f.State())
}

func TestSubmitSuccessResetsForm(t *testing.T) {
	gw := &stubGateway{}
	f := newTestForm(t, gw)
	fillValid(t, f)

	require.NoError(t, f.Submit(context.Background()))

	assert.Equal(t, 1, gw.callCount())
	assert.Equal(t, models.SubmissionState{Status: models.SubmissionSucceeded}, f.State())

	view := f.View()
	for name, value := range view.Fields {
		assert.Empty(t, value, "field %s", name)
	}
	assert.Empty(t, view.Questions)
	_, ok := f.Answer("tech_q1")
	assert.False(t, ok)

	record := gw.records[0]
	assert.Equal(t, "Tech", record.Fixed.PrimaryDomain)
	assert.Equal(t, "Design & UI/UX", record.Fixed.SecondaryDomain)
	assert.Equal(t, "asha@vit.edu.in", record.Fixed.Email)
	require.Len(t, record.Answers, 6)
	assert.Equal(t, models.Answer{QuestionID: "tech_q1", Answer: "Go and TypeScript"}, record.Answers[0])
	assert.Equal(t, "designuiux_q3", record.Answers[5].QuestionID)
}

func TestSubmitRecordOmitsStaleAnswers(t *testing.T) {
	gw := &stubGateway{}
	f := newTestForm(t, gw)
	fillValid(t, f)
	require.NoError(t, f.SetFields(map[string]string{
		models.FieldSecondaryDomain: "media",
		"media_q1":                  "a",
		"media_q2":                  "b",
		"media_q3":                  "c",
	}))
	require.NoError(t, f.SetField(models.FieldSecondaryDomain, ""))

	require.NoError(t, f.Submit(context.Background()))

	record := gw.records[0]
	assert.Empty(t, record.Fixed.SecondaryDomain)
	require.Len(t, record.Answers, 3)
	for _, a := range record.Answers {
		assert.Contains(t, []string{"tech_q1", "tech_q2", "tech_q3"}, a.QuestionID)
	}
}

func TestSubmitFailurePreservesFieldsAndAllowsRetry(t *testing.T) {
	gw := &stubGateway{err: errors.New("sheets unavailable")}
	f := newTestForm(t, gw)
	fillValid(t, f)
	before := f.View()

	err := f.Submit(context.Background())

	var sErr *SubmitError
	require.ErrorAs(t, err, &sErr)
	assert.EqualError(t, errors.Unwrap(err), "sheets unavailable")
	assert.Equal(t, models.SubmissionState{Status: models.SubmissionFailed, Reason: ReasonSubmitFailed}, f.State())

	after := f.View()
	assert.Equal(t, before.Fields, after.Fields)
	assert.Equal(t, before.Answers, after.Answers)
	assert.False(t, after.SubmitDisabled)

	gw.err = nil
	require.NoError(t, f.Submit(context.Background()), "retry with unchanged data")
	assert.Equal(t, 2, gw.callCount())
	assert.Equal(t, models.SubmissionSucceeded, f.State().Status)
}

func TestSubmitRejectedWhilePending(t *testing.T) {
	gw := &stubGateway{release: make(chan struct{}), started: make(chan struct{}, 1)}
	f := newTestForm(t, gw)
	fillValid(t, f)

	done := make(chan error, 1)
	go func() { done <- f.Submit(context.Background()) }()
	<-gw.started

	assert.True(t, f.State().IsPending())
	assert.True(t, f.View().SubmitDisabled)
	assert.ErrorIs(t, f.Submit(context.Background()), ErrSubmissionInFlight)

	close(gw.release)
	require.NoError(t, <-done)
	assert.Equal(t, 1, gw.callCount())
}

func TestConcurrentSubmitsCallGatewayOnce(t *testing.T) {
	gw := &stubGateway{release: make(chan struct{}), started: make(chan struct{}, 8)}
	f := newTestForm(t, gw)
	fillValid(t, f)

	var wg sync.WaitGroup
	var inFlight, ok int32
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			switch err := f.Submit(context.Background()); {
			case err == nil:
				atomic.AddInt32(&ok, 1)
			case errors.Is(err, ErrSubmissionInFlight):
				atomic.AddInt32(&inFlight, 1)
			}
		}()
	}

	<-gw.started
	time.Sleep(50 * time.Millisecond)
	close(gw.release)
	wg.Wait()

	assert.Equal(t, 1, gw.callCount())
	assert.Equal(t, int32(1), ok)
	assert.Equal(t, int32(7), inFlight)
}

func TestSubmitTimeout(t *testing.T) {
	gw := &stubGateway{release: make(chan struct{})}
	f := NewForm("c", Config{
		Catalog:       testCatalog(t),
		Gateway:       gw,
		Emails:        session.MustMatcher("vit.edu.in"),
		SubmitTimeout: 20 * time.Millisecond,
	})
	require.NoError(t, f.Mount(&models.Session{Email: "asha@vit.edu.in", Authenticated: true}, ""))
	fillValid(t, f)

	err := f.Submit(context.Background())

	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, models.SubmissionFailed, f.State().Status)
	assert.Equal(t, "Asha Rao", f.Value(models.FieldName))
}

func TestSubmitIgnoresCallerCancellation(t *testing.T) {
	gw := &stubGateway{release: make(chan struct{}), started: make(chan struct{}, 1)}
	f := newTestForm(t, gw)
	fillValid(t, f)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- f.Submit(ctx) }()
	<-gw.started

	cancel()
	close(gw.release)
	assert.NoError(t, <-done)
}
