package echoapi_test

import (
	"net/http"
	"testing"
	"time"

	. "github.com/infobank/intranet/apps/api/echo"
	"github.com/infobank/intranet/core/course"
	"github.com/infobank/intranet/core/user"
)

func createCourseViaAPI(t *testing.T, adminToken string, nc course.NewCourse) course.Course {
	t.Helper()

	req, rec := newAuthRequest(http.MethodPost, "/v1/courses", adminToken, marchallObj(t, nc))
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("createCourseViaAPI(%s) code = %v; body %s", nc.Nombre, rec.Code, rec.Body.String())
	}
	var crs course.Course
	decodeBody(t, rec, &crs)
	return crs
}

func futureDeadline(days int) string {
	return time.Now().AddDate(0, 0, days).Format("2006-01-02")
}

func Test_courseApi_createAndCatalog(t *testing.T) {
	usr := createUser(t, "Cata", "cata@test.cd", testPwd, user.RolUsuario)
	admin := createUser(t, "CRoot", "croot@test.cd", testPwd, user.RolAdmin)
	usrToken, adminToken := getToken(t, usr), getToken(t, admin)

	nc := course.NewCourse{
		Nombre:      "Lavado de activos",
		Descripcion: "Prevención de lavado",
		Duracion:    "8 horas",
		FechaLimite: futureDeadline(30),
		Cupos:       20,
	}

	// only admins create courses
	req, rec := newAuthRequest(http.MethodPost, "/v1/courses", usrToken, marchallObj(t, nc))
	app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, errPermDenied)}, rec)

	crs := createCourseViaAPI(t, adminToken, nc)
	if crs.ID == "" || crs.Estado != course.EstadoActivo || crs.Inscritos != 0 {
		t.Errorf("created course = %+v", crs)
	}

	// everyone browses the catalog
	req, rec = newAuthRequest(http.MethodGet, "/v1/courses/catalog?search=lavado", usrToken)
	app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{wantCode: http.StatusOK}, rec)

	var entries []course.CatalogEntry
	decodeBody(t, rec, &entries)
	var found bool
	for _, e := range entries {
		if e.ID == crs.ID {
			found = true
			if e.Urgente || e.CuposAgotados {
				t.Errorf("catalog entry = %+v; want neither urgente nor agotado", e)
			}
		}
	}
	if !found {
		t.Errorf("catalog misses course %s", crs.ID)
	}

	// no token, no catalog
	req, rec = newRequest(http.MethodGet, "/v1/courses/catalog")
	app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken)}, rec)
}

func Test_courseApi_enrollmentLifecycle(t *testing.T) {
	u1 := createUser(t, "Ana", "ana.c@test.cd", testPwd, user.RolUsuario)
	u2 := createUser(t, "Bea", "bea.c@test.cd", testPwd, user.RolUsuario)
	admin := createUser(t, "CRoot2", "croot2@test.cd", testPwd, user.RolAdmin)
	t1, t2 := getToken(t, u1), getToken(t, u2)

	crs := createCourseViaAPI(t, getToken(t, admin), course.NewCourse{
		Nombre:      "Primeros auxilios",
		Descripcion: "Curso básico",
		Duracion:    "4 horas",
		FechaLimite: futureDeadline(15),
		Cupos:       1,
	})

	// first seat
	req, rec := newAuthRequest(http.MethodPost, "/v1/courses/"+crs.ID+"/enroll", t1)
	app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{wantCode: http.StatusCreated}, rec)

	var enr course.Enrollment
	decodeBody(t, rec, &enr)
	if enr.ID != course.EnrollmentID(u1.ID, crs.ID) {
		t.Errorf("enrollment ID = %v; want %v", enr.ID, course.EnrollmentID(u1.ID, crs.ID))
	}
	if enr.Status != course.StatusEnProgreso || enr.Progress != 0 || enr.UserEmail != u1.Email {
		t.Errorf("enrollment = %+v", enr)
	}

	// double enrollment
	req, rec = newAuthRequest(http.MethodPost, "/v1/courses/"+crs.ID+"/enroll", t1)
	app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{wantCode: http.StatusConflict, wantData: marchallObj(t, httpErr{Error: "already enrolled"})}, rec)

	// course is full
	req, rec = newAuthRequest(http.MethodPost, "/v1/courses/"+crs.ID+"/enroll", t2)
	app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{wantCode: http.StatusConflict, wantData: marchallObj(t, httpErr{Error: "cupos agotados"})}, rec)

	// document view moves progress to 50
	req, rec = newAuthRequest(http.MethodPost, "/v1/courses/"+crs.ID+"/progress/document", t1)
	app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{wantCode: http.StatusOK}, rec)
	decodeBody(t, rec, &enr)
	if enr.Progress != 50 || enr.Status != course.StatusEnProgreso {
		t.Errorf("after document view = (%v, %v); want (50, en_progreso)", enr.Progress, enr.Status)
	}

	// repeat view changes nothing
	req, rec = newAuthRequest(http.MethodPost, "/v1/courses/"+crs.ID+"/progress/document", t1)
	app.ServeHTTP(rec, req)
	decodeBody(t, rec, &enr)
	if enr.Progress != 50 {
		t.Errorf("after repeat document view = %v; want 50", enr.Progress)
	}

	// video view completes the course
	req, rec = newAuthRequest(http.MethodPost, "/v1/courses/"+crs.ID+"/progress/video", t1)
	app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{wantCode: http.StatusOK}, rec)
	decodeBody(t, rec, &enr)
	if enr.Progress != 100 || enr.Status != course.StatusCompletado || enr.CompletedAt == nil {
		t.Errorf("after video view = %+v; want completado at 100", enr)
	}

	// my enrollments
	req, rec = newAuthRequest(http.MethodGet, "/v1/enrollments", t1)
	app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{wantCode: http.StatusOK}, rec)
	var mine []course.Enrollment
	decodeBody(t, rec, &mine)
	var found bool
	for _, e := range mine {
		if e.CourseID == crs.ID {
			found = true
		}
	}
	if !found {
		t.Errorf("enrollments %+v miss course %s", mine, crs.ID)
	}

	// the roster is admin-only
	req, rec = newAuthRequest(http.MethodGet, "/v1/enrollments/all", t1)
	app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, errPermDenied)}, rec)

	req, rec = newAuthRequest(http.MethodGet, "/v1/enrollments/all", getToken(t, admin))
	app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{wantCode: http.StatusOK}, rec)
}

func Test_courseApi_evaluation(t *testing.T) {
	usr := createUser(t, "Eva", "eva.c@test.cd", testPwd, user.RolUsuario)
	admin := createUser(t, "CRoot3", "croot3@test.cd", testPwd, user.RolAdmin)
	usrToken, adminToken := getToken(t, usr), getToken(t, admin)

	crs := createCourseViaAPI(t, adminToken, course.NewCourse{
		Nombre:      "Seguridad informática",
		Descripcion: "Phishing y contraseñas",
		Duracion:    "2 horas",
		FechaLimite: futureDeadline(10),
		Cupos:       5,
	})

	req, rec := newAuthRequest(http.MethodPost, "/v1/courses/"+crs.ID+"/enroll", usrToken)
	app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{wantCode: http.StatusCreated}, rec)

	// question bank is admin-curated
	nq := marchallObj(t, course.NewQuestion{
		Pregunta:          "¿Qué es phishing?",
		Opciones:          []string{"Un deporte", "Un fraude por correo", "Un antivirus"},
		RespuestaCorrecta: 1,
	})
	req, rec = newAuthRequest(http.MethodPost, "/v1/courses/"+crs.ID+"/questions", usrToken, nq)
	app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, errPermDenied)}, rec)

	req, rec = newAuthRequest(http.MethodPost, "/v1/courses/"+crs.ID+"/questions", adminToken, nq)
	app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{wantCode: http.StatusCreated}, rec)
	var q course.Question
	decodeBody(t, rec, &q)

	// learners get the bank without answers
	req, rec = newAuthRequest(http.MethodGet, "/v1/courses/"+crs.ID+"/questions", usrToken)
	app.ServeHTTP(rec, req)
	var sanitized []course.Question
	decodeBody(t, rec, &sanitized)
	if len(sanitized) != 1 || sanitized[0].RespuestaCorrecta != -1 {
		t.Errorf("learner questions = %+v; want respuestaCorrecta hidden", sanitized)
	}

	// admins see the answers
	req, rec = newAuthRequest(http.MethodGet, "/v1/courses/"+crs.ID+"/questions", adminToken)
	app.ServeHTTP(rec, req)
	var raw []course.Question
	decodeBody(t, rec, &raw)
	if len(raw) != 1 || raw[0].RespuestaCorrecta != 1 {
		t.Errorf("admin questions = %+v; want respuestaCorrecta 1", raw)
	}

	// a perfect run
	req, rec = newAuthRequest(http.MethodPost, "/v1/courses/"+crs.ID+"/evaluation", usrToken,
		marchallObj(t, map[string]interface{}{"answers": map[string]int{q.ID: 1}}))
	app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{wantCode: http.StatusOK}, rec)

	var resp EvaluationResponse
	decodeBody(t, rec, &resp)
	if resp.Calificacion != 100 || !resp.EvaluacionCompletada {
		t.Errorf("evaluation = %+v; want calificacion 100", resp)
	}

	// neither answers nor a score
	req, rec = newAuthRequest(http.MethodPost, "/v1/courses/"+crs.ID+"/evaluation", usrToken, []byte(`{}`))
	app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{wantCode: http.StatusBadRequest}, rec)
}

func Test_courseApi_links(t *testing.T) {
	usr := createUser(t, "Lino", "lino.c@test.cd", testPwd, user.RolUsuario)
	admin := createUser(t, "CRoot4", "croot4@test.cd", testPwd, user.RolAdmin)

	crs := createCourseViaAPI(t, getToken(t, admin), course.NewCourse{
		Nombre:        "Atención al cliente",
		Descripcion:   "Protocolo de atención",
		Duracion:      "3 horas",
		FechaLimite:   futureDeadline(20),
		Cupos:         10,
		ArchivoEnlace: "https://drive.google.com/file/d/ABC123/view?usp=sharing",
		VideoURL:      "https://youtu.be/xyz789",
	})

	req, rec := newAuthRequest(http.MethodGet, "/v1/courses/"+crs.ID+"/links", getToken(t, usr))
	app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{wantCode: http.StatusOK}, rec)

	var links CourseLinksResponse
	decodeBody(t, rec, &links)
	if links.Archivo == nil || links.Archivo.ViewURL == "" || links.Archivo.DownloadURL == "" {
		t.Fatalf("links = %+v; want resolved archivo pair", links)
	}
	if links.DescargaDirecta == "" {
		t.Error("links miss descargaDirecta for a drive file")
	}
	if links.Video != "https://www.youtube.com/watch?v=xyz789" {
		t.Errorf("video = %v; want normalized youtube url", links.Video)
	}
}

func Test_courseApi_archive(t *testing.T) {
	usr := createUser(t, "Aldo", "aldo.c@test.cd", testPwd, user.RolUsuario)
	admin := createUser(t, "CRoot5", "croot5@test.cd", testPwd, user.RolAdmin)
	usrToken, adminToken := getToken(t, usr), getToken(t, admin)

	crs := createCourseViaAPI(t, adminToken, course.NewCourse{
		Nombre:      "Curso efímero",
		Descripcion: "Se archiva pronto",
		Duracion:    "1 hora",
		FechaLimite: futureDeadline(5),
		Cupos:       3,
	})

	req, rec := newAuthRequest(http.MethodPost, "/v1/courses/"+crs.ID+"/archive", adminToken)
	app.ServeHTTP(rec, req)
	checkCodeAndData(t, httpTest{wantCode: http.StatusOK}, rec)
	decodeBody(t, rec, &crs)
	if crs.Estado != course.EstadoArchivado {
		t.Errorf("estado = %v; want archivado", crs.Estado)
	}

	// archived courses leave the catalog
	req, rec = newAuthRequest(http.MethodGet, "/v1/courses/catalog", usrToken)
	app.ServeHTTP(rec, req)
	var entries []course.CatalogEntry
	decodeBody(t, rec, &entries)
	for _, e := range entries {
		if e.ID == crs.ID {
			t.Errorf("archived course %s still in catalog", crs.ID)
		}
	}

	req, rec = newAuthRequest(http.MethodPost, "/v1/courses/"+crs.ID+"/unarchive", adminToken)
	app.ServeHTTP(rec, req)
	decodeBody(t, rec, &crs)
	if crs.Estado != course.EstadoActivo {
		t.Errorf("estado after unarchive = %v; want activo", crs.Estado)
	}
}
