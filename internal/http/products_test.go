package handlers_test

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func silla(catID int64) map[string]any {
	return map[string]any{
		"nombre":       "Silla",
		"descripcion":  "Silla de madera",
		"precio":       "50.00",
		"cantidad":     3,
		"id_categoria": catID,
	}
}

func TestProducts_SaleLifecycle(t *testing.T) {
	ta := newTestApp(t, nil)
	_, tok1 := ta.business(t, "Tienda Uno", "uno@scrap.test", "3000000001")
	_, tok2 := ta.business(t, "Tienda Dos", "dos@scrap.test", "3000000002")
	cat := ta.category(t, "Muebles")

	p := ta.product(t, tok1, silla(cat))
	assert.Equal(t, "50.00", p.Price)
	assert.Equal(t, "Nuevo", p.Condition)
	assert.False(t, p.Sold)
	assert.Nil(t, p.SoldAt)

	path := "/api/productos/" + itoa(p.ID) + "/marcar-vendido/"
	resp, body := ta.do(t, http.MethodPost, path, tok1, map[string]bool{"vendido": true})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var sold productView
	decode(t, body, &sold)
	assert.True(t, sold.Sold)
	assert.Equal(t, 2, sold.Quantity)
	assert.NotNil(t, sold.SoldAt)

	resp, _ = ta.do(t, http.MethodPost, path, tok2, map[string]bool{"vendido": true})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, body = ta.do(t, http.MethodGet, "/api/productos/"+itoa(p.ID)+"/", tok2, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var got productView
	decode(t, body, &got)
	assert.Equal(t, 2, got.Quantity, "a denied sale must not change quantity")

	resp, body = ta.do(t, http.MethodPatch, path, tok1, map[string]bool{"vendido": false})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var avail productView
	decode(t, body, &avail)
	assert.False(t, avail.Sold)
	assert.Nil(t, avail.SoldAt)
	assert.Equal(t, 2, avail.Quantity)

	resp, body = ta.do(t, http.MethodPost, path, tok1, map[string]any{})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	var e errorBody
	decode(t, body, &e)
	assert.Contains(t, e.Details, "vendido")
}

func TestProducts_AnonymousAndMissing(t *testing.T) {
	ta := newTestApp(t, nil)
	_, tok := ta.business(t, "Tienda Uno", "uno@scrap.test", "3000000001")
	p := ta.product(t, tok, silla(ta.category(t, "Muebles")))

	resp, _ := ta.do(t, http.MethodGet, "/api/productos/"+itoa(p.ID)+"/", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = ta.do(t, http.MethodDelete, "/api/productos/"+itoa(p.ID)+"/eliminar/", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = ta.do(t, http.MethodGet, "/api/productos/9999/", tok, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = ta.do(t, http.MethodPost, "/api/productos/9999/marcar-vendido/", tok, map[string]bool{"vendido": true})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestProducts_UpdateKeepsOwner(t *testing.T) {
	ta := newTestApp(t, nil)
	id1, tok1 := ta.business(t, "Tienda Uno", "uno@scrap.test", "3000000001")
	id2, tok2 := ta.business(t, "Tienda Dos", "dos@scrap.test", "3000000002")
	cat := ta.category(t, "Muebles")
	p := ta.product(t, tok1, silla(cat))

	path := "/api/productos/" + itoa(p.ID) + "/editar/"
	resp, body := ta.do(t, http.MethodPatch, path, tok1, map[string]any{
		"precio":        "45.50",
		"id_negocio":    id2,
		"vendido":       true,
		"imagenes_urls": []string{"https://cdn.test/a.png"},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
	var up productView
	decode(t, body, &up)
	assert.Equal(t, id1, up.OwnerID)
	assert.Equal(t, "45.50", up.Price)
	assert.False(t, up.Sold)
	require.Len(t, up.Images, 1)
	assert.Equal(t, "https://cdn.test/a.png", up.Images[0].URL)

	resp, body = ta.do(t, http.MethodPut, path, tok1, map[string]any{"nombre": "Silla nueva"})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode, string(body))
	var e errorBody
	decode(t, body, &e)
	assert.Contains(t, e.Details, "precio")

	resp, _ = ta.do(t, http.MethodPatch, path, tok2, map[string]any{"nombre": "Mía"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = ta.do(t, http.MethodPatch, path, ta.adminToken, map[string]any{"nombre": "Revisada"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

// A caller who may not act is told so before anything about the payload.
func TestProducts_AuthorizationBeforePayload(t *testing.T) {
	ta := newTestApp(t, nil)
	_, tok1 := ta.business(t, "Tienda Uno", "uno@scrap.test", "3000000001")
	_, tok2 := ta.business(t, "Tienda Dos", "dos@scrap.test", "3000000002")
	p := ta.product(t, tok1, silla(ta.category(t, "Muebles")))
	edit := "/api/productos/" + itoa(p.ID) + "/editar/"
	sold := "/api/productos/" + itoa(p.ID) + "/marcar-vendido/"

	cases := []struct {
		name   string
		method string
		path   string
		token  string
		body   any
		status int
	}{
		{"anonymous create with bad json", http.MethodPost, "/api/productos/crear/", "", `{"nombre":`, http.StatusUnauthorized},
		{"non-owner edit with bad json", http.MethodPatch, edit, tok2, `{"nombre":`, http.StatusForbidden},
		{"owner edit with bad json", http.MethodPatch, edit, tok1, `{"nombre":`, http.StatusBadRequest},
		{"missing product edit with bad json", http.MethodPatch, "/api/productos/9999/editar/", tok1, `{"nombre":`, http.StatusNotFound},
		{"non-owner sale without flag", http.MethodPost, sold, tok2, map[string]any{}, http.StatusForbidden},
		{"non-owner sale with bad json", http.MethodPost, sold, tok2, `{"vendido":`, http.StatusForbidden},
		{"anonymous sale without flag", http.MethodPost, sold, "", map[string]any{}, http.StatusUnauthorized},
		{"missing product sale without flag", http.MethodPost, "/api/productos/9999/marcar-vendido/", tok1, map[string]any{}, http.StatusNotFound},
		{"owner sale without flag", http.MethodPost, sold, tok1, map[string]any{}, http.StatusBadRequest},
		{"anonymous image without fields", http.MethodPost, "/api/productos/imagenes/crear/", "", map[string]any{}, http.StatusUnauthorized},
		{"anonymous image with bad json", http.MethodPost, "/api/productos/imagenes/crear/", "", `{"id_producto":`, http.StatusUnauthorized},
		{"non-owner image without url", http.MethodPost, "/api/productos/imagenes/crear/", tok2, map[string]any{"id_producto": p.ID}, http.StatusForbidden},
		{"owner image without url", http.MethodPost, "/api/productos/imagenes/crear/", tok1, map[string]any{"id_producto": p.ID}, http.StatusBadRequest},
		{"anonymous category with bad json", http.MethodPost, "/api/productos/categorias/", "", `{"nombre":`, http.StatusUnauthorized},
		{"business category with bad json", http.MethodPost, "/api/productos/categorias/", tok1, `{"nombre":`, http.StatusForbidden},
		{"anonymous register with bad json", http.MethodPost, "/api/usuarios/registro/", "", `{"correo":`, http.StatusUnauthorized},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp, body := ta.do(t, tc.method, tc.path, tc.token, tc.body)
			assert.Equal(t, tc.status, resp.StatusCode, string(body))
		})
	}

	resp, body := ta.do(t, http.MethodGet, "/api/productos/"+itoa(p.ID)+"/", tok1, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var got productView
	decode(t, body, &got)
	assert.Equal(t, "Silla", got.Name)
	assert.False(t, got.Sold)
	assert.Empty(t, got.Images)
}

func TestImages_UploadWithoutFile(t *testing.T) {
	ta := newTestApp(t, nil)
	_, tok1 := ta.business(t, "Tienda Uno", "uno@scrap.test", "3000000001")
	_, tok2 := ta.business(t, "Tienda Dos", "dos@scrap.test", "3000000002")
	p := ta.product(t, tok1, silla(ta.category(t, "Muebles")))

	for tok, status := range map[string]int{tok2: http.StatusForbidden, tok1: http.StatusBadRequest} {
		var buf bytes.Buffer
		w := multipart.NewWriter(&buf)
		require.NoError(t, w.WriteField("id_producto", itoa(p.ID)))
		require.NoError(t, w.Close())
		req := httptest.NewRequest(http.MethodPost, "/api/productos/imagenes/crear/", &buf)
		req.Header.Set("Content-Type", w.FormDataContentType())
		req.Header.Set("Authorization", "Token "+tok)
		resp, body := ta.send(t, req)
		assert.Equal(t, status, resp.StatusCode, string(body))
	}
}

func TestProducts_CreateValidation(t *testing.T) {
	ta := newTestApp(t, nil)
	_, tok := ta.business(t, "Tienda Uno", "uno@scrap.test", "3000000001")
	cat := ta.category(t, "Muebles")

	cases := []struct {
		name  string
		patch map[string]any
		field string
	}{
		{"zero price", map[string]any{"precio": "0"}, "precio"},
		{"negative quantity", map[string]any{"cantidad": -1}, "cantidad"},
		{"bad condition", map[string]any{"estado": "Roto"}, "estado"},
		{"unknown category", map[string]any{"id_categoria": 999}, "id_categoria"},
		{"blank name", map[string]any{"nombre": "   "}, "nombre"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			in := silla(cat)
			for k, v := range tc.patch {
				in[k] = v
			}
			resp, body := ta.do(t, http.MethodPost, "/api/productos/crear/", tok, in)
			require.Equal(t, http.StatusBadRequest, resp.StatusCode, string(body))
			var e errorBody
			decode(t, body, &e)
			assert.Equal(t, "Datos inválidos", e.Error)
			assert.Contains(t, e.Details, tc.field)
		})
	}

	resp, _ := ta.do(t, http.MethodPost, "/api/productos/crear/", tok, `{"nombre":`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestProducts_Listings(t *testing.T) {
	ta := newTestApp(t, nil)
	_, tok1 := ta.business(t, "Tienda Uno", "uno@scrap.test", "3000000001")
	_, tok2 := ta.business(t, "Tienda Dos", "dos@scrap.test", "3000000002")
	muebles := ta.category(t, "Muebles")
	ropa := ta.category(t, "Ropa")

	silla1 := ta.product(t, tok1, silla(muebles))
	mesa := silla(muebles)
	mesa["nombre"], mesa["precio"], mesa["estado"] = "Mesa", "120.00", "Usado"
	ta.product(t, tok1, mesa)
	camisa := silla(ropa)
	camisa["nombre"], camisa["descripcion"], camisa["precio"] = "Camisa", "Camisa de algodón", "20.00"
	ta.product(t, tok1, camisa)
	ta.product(t, tok2, silla(muebles))

	resp, _ := ta.do(t, http.MethodPost, "/api/productos/"+itoa(silla1.ID)+"/marcar-vendido/", tok1, map[string]bool{"vendido": true})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	list := func(t *testing.T, path string) []productView {
		t.Helper()
		resp, body := ta.do(t, http.MethodGet, path, tok1, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode, string(body))
		var out []productView
		decode(t, body, &out)
		return out
	}
	names := func(ps []productView) []string {
		out := make([]string, 0, len(ps))
		for _, p := range ps {
			out = append(out, p.Name)
		}
		return out
	}

	assert.Len(t, list(t, "/api/productos/mis-productos/"), 3)
	assert.Equal(t, []string{"Silla"}, names(list(t, "/api/productos/mis-productos/?vendido=true")))
	assert.ElementsMatch(t, []string{"Mesa", "Camisa"}, names(list(t, "/api/productos/mis-productos/?vendido=false")))
	assert.Len(t, list(t, "/api/productos/mis-productos/?vendido="), 2, "present but not true means unsold")
	assert.Equal(t, []string{"Camisa"}, names(list(t, "/api/productos/mis-productos/?categoria="+itoa(ropa))))
	assert.Equal(t, []string{"Mesa"}, names(list(t, "/api/productos/mis-productos/?estado=Usado")))
	assert.Equal(t, []string{"Camisa"}, names(list(t, "/api/productos/mis-productos/?search=algod%C3%B3n")))
	assert.Equal(t, []string{"Camisa", "Silla", "Mesa"}, names(list(t, "/api/productos/mis-productos/?ordering=precio")))
	assert.Equal(t, []string{"Mesa", "Silla", "Camisa"}, names(list(t, "/api/productos/mis-productos/?ordering=-precio")))

	resp, body := ta.do(t, http.MethodGet, "/api/productos/mis-productos/?categoria=abc", tok1, nil)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	var e errorBody
	decode(t, body, &e)
	assert.Contains(t, e.Details, "categoria")

	// Every listing stays inside the caller's own products.
	assert.ElementsMatch(t, []string{"Silla", "Mesa"}, names(list(t, "/api/productos/categoria/"+itoa(muebles)+"/")))
	assert.ElementsMatch(t, []string{"Silla", "Camisa"}, names(list(t, "/api/productos/estado/Nuevo/")))
	assert.Equal(t, []string{"Silla"}, names(list(t, "/api/productos/vendidos/")))
	assert.ElementsMatch(t, []string{"Mesa", "Camisa"}, names(list(t, "/api/productos/disponibles/")))

	resp, _ = ta.do(t, http.MethodGet, "/api/productos/mis-productos/", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestProducts_Delete(t *testing.T) {
	ta := newTestApp(t, nil)
	_, tok1 := ta.business(t, "Tienda Uno", "uno@scrap.test", "3000000001")
	_, tok2 := ta.business(t, "Tienda Dos", "dos@scrap.test", "3000000002")
	p := ta.product(t, tok1, silla(ta.category(t, "Muebles")))

	path := "/api/productos/" + itoa(p.ID) + "/eliminar/"
	resp, _ := ta.do(t, http.MethodDelete, path, tok2, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = ta.do(t, http.MethodDelete, path, tok1, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = ta.do(t, http.MethodGet, "/api/productos/"+itoa(p.ID)+"/", tok1, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01")

func uploadRequest(t *testing.T, token string, productID int64, data []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	require.NoError(t, w.WriteField("id_producto", itoa(productID)))
	fw, err := w.CreateFormFile("imagen_url", "foto.png")
	require.NoError(t, err)
	_, err = fw.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/productos/imagenes/crear/", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	req.Header.Set("Authorization", "Token "+token)
	return req
}

func TestImages_UploadServeDelete(t *testing.T) {
	ta := newTestApp(t, nil)
	_, tok1 := ta.business(t, "Tienda Uno", "uno@scrap.test", "3000000001")
	_, tok2 := ta.business(t, "Tienda Dos", "dos@scrap.test", "3000000002")
	p := ta.product(t, tok1, silla(ta.category(t, "Muebles")))

	resp, body := ta.send(t, uploadRequest(t, tok1, p.ID, pngHeader))
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))
	var img struct {
		ID  int64  `json:"id_imagen"`
		URL string `json:"imagen_url"`
	}
	decode(t, body, &img)
	require.True(t, strings.HasPrefix(img.URL, "/media/productos/"), img.URL)
	assert.True(t, strings.HasSuffix(img.URL, ".png"), img.URL)

	resp, body = ta.do(t, http.MethodGet, img.URL, "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, pngHeader, body)

	resp, _ = ta.send(t, uploadRequest(t, tok2, p.ID, pngHeader))
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, body = ta.send(t, uploadRequest(t, tok1, p.ID, []byte("not an image at all")))
	require.Equal(t, http.StatusBadRequest, resp.StatusCode, string(body))

	resp, body = ta.do(t, http.MethodPost, "/api/productos/imagenes/crear/", tok1, map[string]any{
		"id_producto": p.ID, "imagen_url": "https://cdn.test/b.png",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(body))

	resp, body = ta.do(t, http.MethodPost, "/api/productos/imagenes/crear/", tok1, map[string]any{"id_producto": p.ID})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	var e errorBody
	decode(t, body, &e)
	assert.Contains(t, e.Details, "imagen_url")

	resp, body = ta.do(t, http.MethodGet, "/api/productos/"+itoa(p.ID)+"/", tok1, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var detail productView
	decode(t, body, &detail)
	assert.Len(t, detail.Images, 2)

	del := "/api/productos/imagenes/" + itoa(img.ID) + "/eliminar/"
	resp, _ = ta.do(t, http.MethodDelete, del, tok2, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp, _ = ta.do(t, http.MethodDelete, del, tok1, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	_, err := os.Stat(filepath.Join(ta.cfg.MediaDir, strings.TrimPrefix(img.URL, "/media/")))
	assert.True(t, os.IsNotExist(err), "stored file goes with its row")
	resp, _ = ta.do(t, http.MethodDelete, del, tok1, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestMedia_TraversalBlocked(t *testing.T) {
	ta := newTestApp(t, nil)
	for _, p := range []string{"/media/../go.mod", "/media/%2e%2e/secret", "/media/productos/..%2f..%2fetc"} {
		resp, _ := ta.do(t, http.MethodGet, p, "", nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode, p)
	}
}
