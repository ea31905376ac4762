package web

import (
	"archive/zip"
	"bytes"
	"encoding/json"
	"io/ioutil"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mogaika/sdf_robot_importer/config"
	"github.com/mogaika/sdf_robot_importer/scene"
	"github.com/mogaika/sdf_robot_importer/status"
	"github.com/mogaika/sdf_robot_importer/utils"
)

const robotSDF = `<sdf version="1.6"><model name="bot">
  <link name="base">
    <visual name="v"><geometry><box><size>1 1 1</size></box></geometry></visual>
    <collision name="c"><geometry><sphere><radius>0.5</radius></sphere></geometry></collision>
  </link>
  <link name="arm"><pose>0 0 1 0 0 0</pose></link>
  <joint name="j1" type="revolute"><parent>base</parent><child>arm</child><axis><xyz>0 1 0</xyz></axis></joint>
</model></sdf>`

const robotConfig = `<model><name>Bot</name><version>2</version><author><name>A</name><email>a@b.c</email></author><description>d</description></model>`

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	hub := status.NewHub(utils.DiscardLogger())
	t.Cleanup(hub.Close)
	srv := NewServer(scene.New(), hub, utils.DiscardLogger(), config.Default())
	ts := httptest.NewServer(srv.Handler(ioutil.Discard))
	t.Cleanup(ts.Close)
	return srv, ts
}

func upload(t *testing.T, url, name string, content []byte, fields ...string) *http.Response {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for i := 0; i+1 < len(fields); i += 2 {
		require.NoError(t, mw.WriteField(fields[i], fields[i+1]))
	}
	fw, err := mw.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	resp, err := http.Post(url+"/import", mw.FormDataContentType(), &body)
	require.NoError(t, err)
	return resp
}

func zipped(t *testing.T, files map[string]string) []byte {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range files {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestImportAndQuery(t *testing.T) {
	_, ts := newTestServer(t)

	resp := upload(t, ts.URL, "bot.zip", zipped(t, map[string]string{
		"bot/model.sdf":    robotSDF,
		"bot/model.config": robotConfig,
	}))
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result ImportResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.Equal(t, "bot", result.Model)

	resp, err := http.Get(ts.URL + "/json/scene")
	require.NoError(t, err)
	var summaries []ModelSummary
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&summaries))
	resp.Body.Close()
	require.Len(t, summaries, 1)
	assert.Equal(t, 2, summaries[0].BoneCount)
	assert.Equal(t, 2, summaries[0].GeometryCount)
	assert.Equal(t, "Bot", summaries[0].Meta.ConfigName)

	resp, err = http.Get(ts.URL + "/json/scene/bot")
	require.NoError(t, err)
	var view struct {
		Bones []struct {
			Name       string
			JointMode  string
			Axis       string
			Geometries []struct{ Name, Tag string }
		}
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&view))
	resp.Body.Close()
	require.Len(t, view.Bones, 2)
	assert.Equal(t, "FIXED", view.Bones[0].JointMode)
	assert.Equal(t, "j1", view.Bones[1].Name)
	assert.Equal(t, "REVOLUTE", view.Bones[1].JointMode)
	assert.Equal(t, "Y", view.Bones[1].Axis)
	require.Len(t, view.Bones[0].Geometries, 2)
	assert.Equal(t, "COL_base_0", view.Bones[0].Geometries[1].Name)
	assert.Equal(t, "COLLISION", view.Bones[0].Geometries[1].Tag)

	resp, err = http.Get(ts.URL + "/export/bot.glb")
	require.NoError(t, err)
	data, err := ioutil.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "glTF", string(data[:4]))
}

func TestImportPlainSDFWithoutConfig(t *testing.T) {
	_, ts := newTestServer(t)

	// model.config is required unless asked otherwise
	resp := upload(t, ts.URL, "bot.sdf", []byte(robotSDF))
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = upload(t, ts.URL, "bot.sdf", []byte(robotSDF), "standalone", "true")
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result ImportResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	var warnings int
	for _, m := range result.Reports {
		if m.Type == status.WARNING {
			warnings++
		}
	}
	assert.Equal(t, 1, warnings)
}

func TestImportErrors(t *testing.T) {
	_, ts := newTestServer(t)

	resp := upload(t, ts.URL, "empty.zip", zipped(t, map[string]string{"readme.txt": "x"}))
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp = upload(t, ts.URL, "model.obj", []byte("v 0 0 0"))
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err := http.Get(ts.URL + "/json/scene/nope")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, err = http.Get(ts.URL + "/import")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}
