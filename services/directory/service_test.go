package directory

import (
	"context"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"clinic-adminplane/services/testutil"
)

func init() {
	zap.ReplaceGlobals(zap.NewNop())
}

func newTestDirectory(t *testing.T) *Service {
	t.Helper()

	db := testutil.NewTestDB(t, &Patient{}, &Doctor{}, &Employee{})
	node, err := snowflake.NewNode(1)
	require.NoError(t, err)

	return NewService(ServiceParams{DB: db, Node: node})
}

func TestCreatePatientNormalizesPhone(t *testing.T) {
	svc := newTestDirectory(t)

	p, err := svc.CreatePatient(context.Background(), PatientInput{Name: "Budi", Phone: "0812-3456-7890"})
	require.NoError(t, err)
	require.Equal(t, "6281234567890", p.Phone)
}

func TestCreatePatientRejectsBadInput(t *testing.T) {
	svc := newTestDirectory(t)

	_, err := svc.CreatePatient(context.Background(), PatientInput{Name: ""})
	require.Error(t, err)

	_, err = svc.CreatePatient(context.Background(), PatientInput{Name: "Budi", Phone: "abc"})
	require.Error(t, err)
}

func TestPatientLifecycle(t *testing.T) {
	svc := newTestDirectory(t)

	p, err := svc.CreatePatient(context.Background(), PatientInput{Name: "Budi"})
	require.NoError(t, err)

	updated, err := svc.UpdatePatient(context.Background(), p.ID, PatientInput{Name: "Budi Santoso", Phone: "081200001111"})
	require.NoError(t, err)
	require.Equal(t, "Budi Santoso", updated.Name)
	require.Equal(t, "6281200001111", updated.Phone)

	require.NoError(t, svc.DeletePatient(context.Background(), p.ID))

	_, err = svc.GetPatient(context.Background(), p.ID)
	require.Error(t, err)

	require.Error(t, svc.DeletePatient(context.Background(), p.ID))
}

func TestListPatientsSearch(t *testing.T) {
	svc := newTestDirectory(t)

	for _, name := range []string{"Budi", "Sari", "Budiman"} {
		_, err := svc.CreatePatient(context.Background(), PatientInput{Name: name})
		require.NoError(t, err)
	}

	matches, err := svc.ListPatients(context.Background(), "Budi")
	require.NoError(t, err)
	require.Len(t, matches, 2)

	all, err := svc.ListPatients(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, all, 3)
}

func TestDoctorAndEmployeeCRUD(t *testing.T) {
	svc := newTestDirectory(t)

	d, err := svc.CreateDoctor(context.Background(), DoctorInput{Name: "drg. Sari", Specialization: "orthodontics"})
	require.NoError(t, err)
	require.True(t, d.IsActive)

	e, err := svc.CreateEmployee(context.Background(), EmployeeInput{Name: "Rina", Role: "receptionist"})
	require.NoError(t, err)

	doctors, err := svc.ListDoctors(context.Background())
	require.NoError(t, err)
	require.Len(t, doctors, 1)

	employees, err := svc.ListEmployees(context.Background())
	require.NoError(t, err)
	require.Len(t, employees, 1)

	require.NoError(t, svc.DeleteDoctor(context.Background(), d.ID))
	require.NoError(t, svc.DeleteEmployee(context.Background(), e.ID))
}
